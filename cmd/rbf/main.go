package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/njchilds90/gorbf"
	"github.com/njchilds90/gorbf/internal/config"
	"github.com/njchilds90/gorbf/internal/server"
	"github.com/njchilds90/gorbf/symbolic"
)

var (
	configFile string
	logLevel   string
	expression string
	backend    string
	tolerance  float64
	points     string
	centers    string
	eps        string
	diff       string
	dim        int
	asJSON     bool
	asLaTeX    bool
	order      int
	from       float64
	to         float64
	samples    int
	height     int
	addr       string
	maxEngines int
	maxDim     int
	maxOrder   int
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "rbf",
		Short:        "radial basis functions and their derivatives",
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warning, error, fatal)")

	evalCmd := &cobra.Command{
		Use:   "eval [basis]",
		Short: "evaluate a basis function between points and centers",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEval,
	}
	addBasisFlags(evalCmd)
	evalCmd.Flags().StringVar(&points, "points", "", `evaluation points, e.g. "0,0;1,0.5"`)
	evalCmd.Flags().StringVar(&centers, "centers", "", `centers, e.g. "0,0"`)
	evalCmd.Flags().StringVar(&eps, "eps", "", "shape parameters, one per center (default all 1)")
	evalCmd.Flags().StringVar(&diff, "diff", "", `derivative orders per axis, e.g. "1,0"`)
	evalCmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	deriveCmd := &cobra.Command{
		Use:   "derive [basis]",
		Short: "print the symbolic derivative",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDerive,
	}
	addBasisFlags(deriveCmd)
	deriveCmd.Flags().IntVar(&dim, "dim", 1, "spatial dimension when --diff is not given")
	deriveCmd.Flags().StringVar(&diff, "diff", "", `derivative orders per axis, e.g. "2,0"`)
	deriveCmd.Flags().BoolVar(&asLaTeX, "latex", false, "print LaTeX")
	deriveCmd.Flags().BoolVar(&asJSON, "json", false, "print the expression tree as JSON")

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "list registered basis functions",
		Args:  cobra.NoArgs,
		RunE:  runCatalog,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [basis]",
		Short: "plot a 1-D profile centered at 0",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPlot,
	}
	addBasisFlags(plotCmd)
	plotCmd.Flags().IntVar(&order, "diff", 0, "derivative order")
	plotCmd.Flags().StringVar(&eps, "eps", "1", "shape parameter")
	plotCmd.Flags().Float64Var(&from, "from", config.DefaultFrom, "start of the range")
	plotCmd.Flags().Float64Var(&to, "to", config.DefaultTo, "end of the range")
	plotCmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "number of samples")
	plotCmd.Flags().IntVar(&height, "height", config.DefaultHeight, "plot height")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve evaluations over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&backend, "backend", "", "default numeric backend")
	serveCmd.Flags().Float64Var(&tolerance, "tol", 0, "default singularity tolerance")
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	serveCmd.Flags().IntVar(&maxEngines, "max-engines", server.DefaultMaxEngines, "engines kept alive across requests")
	serveCmd.Flags().IntVar(&maxDim, "max-dim", server.DefaultMaxDim, "largest accepted dimensionality")
	serveCmd.Flags().IntVar(&maxOrder, "max-order", server.DefaultMaxOrder, "largest accepted total derivative order")

	rootCmd.AddCommand(evalCmd, deriveCmd, catalogCmd, plotCmd, serveCmd)
	return rootCmd
}

func addBasisFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&expression, "expr", "", `basis expression in R and EPS, e.g. "exp(-(EPS*R)^2)"`)
	cmd.Flags().StringVar(&backend, "backend", "", "numeric backend (native, portable)")
	cmd.Flags().Float64Var(&tolerance, "tol", 0, "distance below which the limit at the center is used")
}

// settings loads the config file and applies the flags given on the
// command line on top of it.
func settings(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if len(args) > 0 {
		cfg.Basis = args[0]
		cfg.Expression = ""
	}
	if flags.Changed("expr") {
		cfg.Expression = expression
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("points") {
		m, err := parseMatrix(points)
		if err != nil {
			return nil, fmt.Errorf("--points: %w", err)
		}
		cfg.Eval.Points = m
	}
	if flags.Changed("centers") {
		m, err := parseMatrix(centers)
		if err != nil {
			return nil, fmt.Errorf("--centers: %w", err)
		}
		cfg.Eval.Centers = m
	}
	if cmd.Name() == "eval" && flags.Changed("eps") {
		vs, err := parseFloats(eps)
		if err != nil {
			return nil, fmt.Errorf("--eps: %w", err)
		}
		cfg.Eval.Shape = vs
	}
	if flags.Changed("diff") && cmd.Name() != "plot" {
		sig, err := gorbf.ParseSignature(diff)
		if err != nil {
			return nil, fmt.Errorf("--diff: %w", err)
		}
		cfg.Eval.Diff = sig
	}
	if flags.Changed("from") {
		cfg.Plot.From = from
	}
	if flags.Changed("to") {
		cfg.Plot.To = to
	}
	if flags.Changed("samples") {
		cfg.Plot.Samples = samples
	}
	if flags.Changed("height") {
		cfg.Plot.Height = height
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if flags.Changed("max-engines") {
		cfg.Server.MaxEngines = maxEngines
	}
	if flags.Changed("max-dim") {
		cfg.Server.MaxDim = maxDim
	}
	if flags.Changed("max-order") {
		cfg.Server.MaxOrder = maxOrder
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func stderr() *log.Logger {
	return log.New(os.Stderr, "", 0)
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := settings(cmd, args)
	if err != nil {
		return err
	}
	if len(cfg.Eval.Points) == 0 || len(cfg.Eval.Centers) == 0 {
		return fmt.Errorf("points and centers are required")
	}
	e, err := cfg.Engine(cfg.Logger(stderr()))
	if err != nil {
		return err
	}
	p, err := gorbf.Rows(cfg.Eval.Points)
	if err != nil {
		return fmt.Errorf("points: %w", err)
	}
	c, err := gorbf.Rows(cfg.Eval.Centers)
	if err != nil {
		return fmt.Errorf("centers: %w", err)
	}
	res, err := e.Evaluate(p, c, cfg.Eval.Shape, gorbf.Signature(cfg.Eval.Diff))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	n, m := res.Dims()
	if asJSON {
		rows := make([][]float64, n)
		for i := range rows {
			rows[i] = res.RawRowView(i)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := []string{"POINT"}
	for j := 0; j < m; j++ {
		header = append(header, "C"+strconv.Itoa(j))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for i := 0; i < n; i++ {
		cells := []string{formatRow(cfg.Eval.Points[i])}
		for j := 0; j < m; j++ {
			cells = append(cells, strconv.FormatFloat(res.At(i, j), 'g', 10, 64))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func runDerive(cmd *cobra.Command, args []string) error {
	cfg, err := settings(cmd, args)
	if err != nil {
		return err
	}
	e, err := cfg.Engine(cfg.Logger(stderr()))
	if err != nil {
		return err
	}
	sig := gorbf.Signature(cfg.Eval.Diff)
	if len(sig) == 0 {
		sig = gorbf.Zero(dim)
	}
	d, err := e.Derivative(sig)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case asJSON:
		s, err := symbolic.ToJSON(d)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
	case asLaTeX:
		fmt.Fprintln(out, symbolic.LaTeX(d))
	default:
		fmt.Fprintln(out, symbolic.String(d))
	}
	return nil
}

func runCatalog(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render("basis functions"))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, b := range gorbf.Catalog() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", nameStyle.Render(b.Name), b.Expr, dimStyle.Render(b.Description))
	}
	return w.Flush()
}

func runPlot(cmd *cobra.Command, args []string) error {
	cfg, err := settings(cmd, args)
	if err != nil {
		return err
	}
	shape, err := strconv.ParseFloat(eps, 64)
	if err != nil {
		return fmt.Errorf("--eps: %w", err)
	}
	e, err := cfg.Engine(cfg.Logger(stderr()))
	if err != nil {
		return err
	}
	xs := make([][]float64, cfg.Plot.Samples)
	step := (cfg.Plot.To - cfg.Plot.From) / float64(cfg.Plot.Samples-1)
	for i := range xs {
		xs[i] = []float64{cfg.Plot.From + float64(i)*step}
	}
	p, err := gorbf.Rows(xs)
	if err != nil {
		return err
	}
	c, _ := gorbf.Rows([][]float64{{0}})
	res, err := e.Evaluate(p, c, []float64{shape}, gorbf.Signature{order})
	if err != nil {
		return err
	}

	caption := fmt.Sprintf("%s, derivative %d, eps %g, x in [%g, %g]", e.Source(), order, shape, cfg.Plot.From, cfg.Plot.To)
	graph := asciigraph.Plot(res.RawMatrix().Data,
		asciigraph.Height(cfg.Plot.Height),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Fprintln(cmd.OutOrStdout(), graph)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := settings(cmd, args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	srv := server.New(cfg.Backend, cfg.Tolerance, cfg.Logger(stderr()), server.WithLimits(cfg.Server.Limits()))
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// parseMatrix reads rows separated by ';' of values separated by ','.
func parseMatrix(s string) ([][]float64, error) {
	var out [][]float64
	for _, row := range strings.Split(s, ";") {
		if strings.TrimSpace(row) == "" {
			continue
		}
		vs, err := parseFloats(row)
		if err != nil {
			return nil, err
		}
		out = append(out, vs)
	}
	return out, nil
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func formatRow(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
