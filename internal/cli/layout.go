package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/justapithecus/folio/folio"
	"github.com/justapithecus/folio/folio/pdf"
	folios3 "github.com/justapithecus/folio/folio/s3"
	internals3 "github.com/justapithecus/folio/internal/s3"
)

// layoutOptions holds the flags of the layout command.
type layoutOptions struct {
	fit          string
	fitEachPage  bool
	viewport     string
	vertical     bool
	spacing      float32
	startSpacing float32
	endSpacing   float32
	autoSpacing  bool
	pages        string
	password     string
	format       string
	out          string
	compress     string
	timeout      time.Duration

	s3Bucket    string
	s3Prefix    string
	s3Region    string
	s3Endpoint  string
	s3PathStyle bool
}

func newLayoutCmd() *cobra.Command {
	opts := &layoutOptions{}
	cmd := &cobra.Command{
		Use:   "layout <path>",
		Short: "Lay out a document and report page geometry",
		Long: `Open a document, fit its pages into the viewport and report one row per
requested page position.

With --s3-bucket, <path> is an object key in that bucket and --out, if set,
is written to the same bucket. Otherwise both are local paths. Documents
ending in .gz or .zst are decompressed before opening.`,
		Example: `  folio layout report.pdf --viewport 1080x1920 --fit both
  folio layout report.pdf --pages 0,4,4,6 --format jsonl
  folio layout docs/a.pdf.zst --s3-bucket archive --format parquet --out reports/a.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.fit, "fit", "width", "Fit policy: width, height or both")
	f.BoolVar(&opts.fitEachPage, "fit-each-page", false, "Fit every page to the full viewport independently")
	f.StringVar(&opts.viewport, "viewport", "1080x1920", "Viewport size in pixels, WIDTHxHEIGHT")
	f.BoolVar(&opts.vertical, "vertical", true, "Scroll vertically (false lays pages out horizontally)")
	f.Float32Var(&opts.spacing, "spacing", 0, "Gap between pages in pixels")
	f.Float32Var(&opts.startSpacing, "start-spacing", 0, "Gap before the first page in pixels")
	f.Float32Var(&opts.endSpacing, "end-spacing", 0, "Gap after the last page in pixels")
	f.BoolVar(&opts.autoSpacing, "auto-spacing", false, "Centre each page in a slot one viewport long")
	f.StringVar(&opts.pages, "pages", "", "Comma-separated page ordering, e.g. 0,4,4,6 (default: all pages)")
	f.StringVar(&opts.password, "password", "", "Document password")
	f.StringVar(&opts.format, "format", "table", "Report format: table, jsonl or parquet")
	f.StringVarP(&opts.out, "out", "o", "", "Write the report to this path or key instead of stdout")
	f.StringVar(&opts.compress, "compress", "", "Compress the written report: gzip or zstd")
	f.DurationVar(&opts.timeout, "timeout", time.Minute, "Give up waiting for the load after this long")

	f.StringVar(&opts.s3Bucket, "s3-bucket", "", "Read the document from this S3 bucket")
	f.StringVar(&opts.s3Prefix, "s3-prefix", "", "Key prefix inside the bucket")
	f.StringVar(&opts.s3Region, "s3-region", "", "S3 region (default us-east-1)")
	f.StringVar(&opts.s3Endpoint, "s3-endpoint", "", "S3-compatible endpoint URL, e.g. http://localhost:9000")
	f.BoolVar(&opts.s3PathStyle, "s3-path-style", false, "Use path-style S3 addressing")
	return cmd
}

// layoutConfig builds the layout snapshot from flags.
func (o *layoutOptions) layoutConfig() (folio.LayoutConfig, error) {
	fit, err := folio.ParseFitPolicy(o.fit)
	if err != nil {
		return folio.LayoutConfig{}, err
	}
	viewport, err := parseViewport(o.viewport)
	if err != nil {
		return folio.LayoutConfig{}, err
	}
	return folio.LayoutConfig{
		Fit:         fit,
		FitEachPage: o.fitEachPage,
		Viewport:    viewport,
		Vertical:    o.vertical,
		Spacing: folio.Spacing{
			Page:  o.spacing,
			Start: o.startSpacing,
			End:   o.endSpacing,
			Auto:  o.autoSpacing,
		},
	}, nil
}

// parseViewport parses "WIDTHxHEIGHT".
func parseViewport(s string) (folio.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return folio.Size{}, fmt.Errorf("%w: viewport %q is not WIDTHxHEIGHT", folio.ErrInvalidConfiguration, s)
	}
	width, errW := strconv.ParseFloat(w, 32)
	height, errH := strconv.ParseFloat(h, 32)
	size := folio.Size{Width: float32(width), Height: float32(height)}
	if errW != nil || errH != nil || !size.Valid() {
		return folio.Size{}, fmt.Errorf("%w: viewport %q must have positive dimensions", folio.ErrInvalidConfiguration, s)
	}
	return size, nil
}

// parsePages parses a comma-separated page ordering. Empty means all pages.
func parsePages(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	pages := make([]int, 0, len(parts))
	for _, part := range parts {
		p, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || p < 0 {
			return nil, fmt.Errorf("%w: invalid page %q", folio.ErrInvalidConfiguration, part)
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// s3Store builds the bucket store, or returns nil when no bucket is set.
func (o *layoutOptions) s3Store(ctx context.Context) (folio.Store, error) {
	if o.s3Bucket == "" {
		return nil, nil
	}
	client, err := internals3.NewClient(ctx, internals3.ClientConfig{
		Region:       o.s3Region,
		Endpoint:     o.s3Endpoint,
		UsePathStyle: o.s3PathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	store, err := folios3.New(client, folios3.Config{Bucket: o.s3Bucket, Prefix: o.s3Prefix})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// documentSource picks where the document is read from.
func documentSource(store folio.Store, path string) (folio.DocumentSource, error) {
	if store != nil {
		return folio.StoreSource{Store: store, Key: path}, nil
	}
	if folio.CompressorFor(path).Name() == "noop" {
		return folio.FileSource(path), nil
	}
	dir, err := folio.NewFS(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return folio.StoreSource{Store: dir, Key: filepath.Base(path)}, nil
}

func runLayout(ctx context.Context, w io.Writer, path string, opts *layoutOptions) error {
	cfg, err := opts.layoutConfig()
	if err != nil {
		return err
	}
	pages, err := parsePages(opts.pages)
	if err != nil {
		return err
	}
	if err := opts.validateOutput(); err != nil {
		return err
	}

	store, err := opts.s3Store(ctx)
	if err != nil {
		return err
	}
	source, err := documentSource(store, path)
	if err != nil {
		return err
	}

	doc, err := load(ctx, source, cfg, pages, opts)
	if err != nil {
		return err
	}
	defer func() { _ = doc.Close() }()

	return writeLayout(ctx, w, doc, store, opts)
}

func (o *layoutOptions) validateOutput() error {
	switch o.format {
	case "table":
		if o.out != "" {
			return fmt.Errorf("%w: --out requires --format jsonl or parquet", folio.ErrInvalidConfiguration)
		}
	case "parquet":
		if o.out == "" {
			return fmt.Errorf("%w: --format parquet requires --out", folio.ErrInvalidConfiguration)
		}
	case "jsonl":
	default:
		return fmt.Errorf("%w: unknown format %q", folio.ErrInvalidConfiguration, o.format)
	}
	if _, err := folio.CompressorByName(o.compress); err != nil {
		return err
	}
	return nil
}

// load runs one LoadTask with a Looper standing in for the interactive
// thread and waits for its outcome.
func load(ctx context.Context, source folio.DocumentSource, cfg folio.LayoutConfig, pages []int, opts *layoutOptions) (*folio.Document, error) {
	looper := folio.NewLooper()
	defer func() { _ = looper.Close() }()

	view := &reportView{config: cfg}
	handle := folio.NewViewHandle(view)
	defer handle.Release()

	task, err := folio.NewLoadTask(handle, source, pdf.New(),
		folio.WithPassword(opts.password),
		folio.WithPages(pages),
		folio.WithDispatcher(looper))
	if err != nil {
		return nil, err
	}
	if err := task.Start(ctx); err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	res, _, err := task.Wait(waitCtx)
	if err != nil {
		task.Cancel()
		// The background step still finishes; close whatever it opens.
		go closeLate(task)
		return nil, fmt.Errorf("waiting for %s: %w", task.ID(), err)
	}
	if res.Err != nil {
		return nil, fmt.Errorf("%s: %w", folio.Classify(res.Err), res.Err)
	}
	return res.Document, nil
}

// closeLate waits for an abandoned task to settle and closes its document.
func closeLate(task *folio.LoadTask) {
	<-task.Done()
	if res, _ := task.Result(); res.Document != nil {
		if err := res.Document.Close(); err != nil {
			folio.Logger().Warn("close abandoned document", "task", task.ID(), "error", err)
		}
	}
}

// reportView is the View of a one-shot command: the layout it requests is
// fixed by flags and its viewport never changes.
type reportView struct {
	config folio.LayoutConfig
}

func (v *reportView) LayoutConfig() folio.LayoutConfig { return v.config }
func (v *reportView) Viewport() folio.Size             { return v.config.Viewport }

func (v *reportView) LoadComplete(doc *folio.Document) {
	folio.Logger().Info("layout ready",
		"pages", doc.PageCount(),
		"length", doc.DocumentLength(1))
}

func (v *reportView) LoadError(err error) {
	folio.Logger().Debug("layout failed", "kind", folio.Classify(err).String())
}

func writeLayout(ctx context.Context, w io.Writer, doc *folio.Document, store folio.Store, opts *layoutOptions) error {
	rows := doc.Records()
	if opts.format == "table" {
		return writeTable(w, doc, rows)
	}

	codec, err := folio.CodecByName(opts.format)
	if err != nil {
		return err
	}
	if opts.out == "" {
		return codec.Encode(w, rows)
	}

	compressor, err := folio.CompressorByName(opts.compress)
	if err != nil {
		return err
	}
	key := opts.out
	if store == nil {
		if store, err = folio.NewFS(filepath.Dir(opts.out)); err != nil {
			return err
		}
		key = filepath.Base(opts.out)
	}
	written, err := folio.WriteReport(ctx, store, key, codec, compressor, rows)
	if err != nil {
		if errors.Is(err, folio.ErrPathExists) {
			return fmt.Errorf("%s already exists", opts.out)
		}
		return err
	}
	_, err = fmt.Fprintf(w, "wrote %d rows to %s\n", len(rows), written)
	return err
}

func writeTable(w io.Writer, doc *folio.Document, rows []folio.PageRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "POS\tINDEX\tPAGE\tNATIVE\tSIZE\tOFFSET\tSPACING\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%gx%g\t%.1fx%.1f\t%.1f\t%.1f\t\n",
			r.Position, r.Index, r.Page,
			r.NativeWidth, r.NativeHeight,
			r.Width, r.Height,
			r.Offset, r.Spacing)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	maxPage := doc.MaxPageSize()
	_, err := fmt.Fprintf(w, "\n%d pages, %d positions, length %.1f, max page %.1fx%.1f\n",
		doc.PageCount(), len(rows), doc.DocumentLength(1), maxPage.Width, maxPage.Height)
	return err
}
