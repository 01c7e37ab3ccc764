package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/harrison-m-freitas/MarkClip/internal/browser"
	"github.com/harrison-m-freitas/MarkClip/internal/config"
	"github.com/harrison-m-freitas/MarkClip/internal/dom"
	"github.com/harrison-m-freitas/MarkClip/internal/embed"
	"github.com/harrison-m-freitas/MarkClip/internal/export"
	"github.com/harrison-m-freitas/MarkClip/internal/fetcher"
	"github.com/harrison-m-freitas/MarkClip/internal/formatter"
	"github.com/harrison-m-freitas/MarkClip/internal/markdown"
	"github.com/harrison-m-freitas/MarkClip/internal/parser"
	"github.com/harrison-m-freitas/MarkClip/internal/sites"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

var (
	inputFile  string
	outputFile string
	saveDir    string
	save       bool
	headers    []string
	waitFor    string
	waitTarget string
	showUI     bool
	proxyURL   string
	trace      bool
	configFile string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()

	rootCmd := &cobra.Command{
		Use:     "markclip [URL]",
		Short:   "Export web pages as clean Markdown",
		Version: version,
		Long: `markclip loads a web page, picks the parser that best fits the site,
extracts the main content and converts it into a normalized Markdown
document with an optional metadata header and inlined images.`,
		Example: `  # Export an article to stdout
  markclip https://medium.com/@someone/some-post

  # Save a repository README with images embedded as data URIs
  markclip --embed-images --save --dir notes https://github.com/owner/repo

  # Convert a saved page, forcing a parser
  markclip -i room.html -P tryhackme https://tryhackme.com/room/intro

  # Show why a parser was selected
  markclip --trace --log-level debug https://example.com/post`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, args)
		},
		SilenceUsage: true,
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&inputFile, "input", "i", "", "Read the page from a saved HTML file instead of loading URL")
	flags.StringP("parser", "P", "auto", "Parser to use (auto, generic, medium, github-readme, tryhackme)")
	flags.Bool("embed-images", false, "Inline images as data URIs")
	flags.Bool("metadata", true, "Prepend a YAML metadata header")
	flags.StringSlice("tags", nil, "Tags for the metadata header (can be used multiple times)")
	flags.StringP("format", "f", formatter.FormatMarkdown, "Output format (markdown, html, text, json)")
	flags.StringVarP(&outputFile, "output", "o", "", "Output file path (format inferred from extension if -f not specified)")
	flags.BoolVar(&save, "save", false, "Write the output to a file named after the page title")
	flags.StringVar(&saveDir, "dir", ".", "Directory for --save")
	flags.Bool("render", true, "Load the page in a browser; disable to fetch the raw HTML")
	flags.BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	flags.StringVarP(&proxyURL, "proxy", "p", os.Getenv("MARKCLIP_PROXY"), "Proxy URL (e.g. http://127.0.0.1:7890), defaults to MARKCLIP_PROXY env var")
	flags.DurationP("timeout", "t", 0, "Page load timeout (default 30s)")
	flags.StringSliceVarP(&headers, "header", "H", nil, "HTTP headers (can be used multiple times)")
	flags.StringVarP(&waitFor, "wait-for", "w", "load", "Wait strategy (load, element, time)")
	flags.StringVarP(&waitTarget, "wait-target", "T", "", "Wait target (selector for 'element' strategy, milliseconds for 'time' strategy)")
	flags.BoolVar(&trace, "trace", false, "Log how the parser was selected")
	flags.StringVar(&configFile, "config", "", "Config file (default ./markclip.yaml or ~/.config/markclip/markclip.yaml)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")

	for key, flag := range map[string]string{
		"parser":           "parser",
		"embed_images":     "embed-images",
		"include_metadata": "metadata",
		"tags":             "tags",
		"format":           "format",
		"browser.render":   "render",
		"browser.timeout":  "timeout",
		"log.level":        "log-level",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(newParsersCmd())
	return rootCmd
}

func newParsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parsers",
		Short: "List the available parsers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := sites.NewRegistry(nil, sites.Options{}, logrus.StandardLogger())
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDOMAINS\tCAPABILITIES")
			for _, p := range append(reg.List(), reg.Fallback()) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name(), describeDomains(p.Domains()), describeCapabilities(p.Capabilities()))
			}
			return w.Flush()
		},
	}
}

func run(cmd *cobra.Command, v *viper.Viper, args []string) error {
	if len(args) == 0 && inputFile == "" {
		return cmd.Help()
	}

	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("showui") {
		cfg.Browser.Headless = !showUI
	}
	if cmd.Flags().Changed("proxy") || cfg.Browser.Proxy == "" {
		cfg.Browser.Proxy = proxyURL
	}
	if outputFile != "" && !cmd.Flags().Changed("format") {
		if inferred := formatter.InferFromExtension(outputFile); inferred != "" {
			cfg.Format = inferred
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	strategy, err := fetcher.ParseWaitStrategy(waitFor)
	if err != nil {
		return err
	}
	if strategy != fetcher.WaitStrategyLoad && waitTarget == "" {
		return fmt.Errorf("--wait-target is required when using '%s' wait strategy", strategy)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	embedder := embed.New(cfg.EmbedOptions(), logger)
	conv := markdown.NewConverter(embedder, logger)
	reg := sites.NewRegistry(conv, sites.Options{TryHackMe: cfg.TryHackMeOptions(), Trace: trace}, logger)

	var target string
	if len(args) > 0 {
		target = normalizeURL(args[0])
	}

	var doc *dom.Document
	switch {
	case inputFile != "":
		doc, err = fetcher.LoadFile(inputFile, target)
		if err != nil {
			return fmt.Errorf("failed to load page: %w", err)
		}
	case cfg.Browser.Render:
		var b *browser.Browser
		var res *fetcher.Result
		b, res, err = loadRendered(ctx, cfg, target, strategy, logger, false)
		if err != nil && cfg.Browser.Proxy != "" {
			logger.WithError(err).Warnf("first attempt failed, retrying with proxy %s", cfg.Browser.Proxy)
			b, res, err = loadRendered(ctx, cfg, target, strategy, logger, true)
		}
		if err != nil {
			return fmt.Errorf("failed to fetch page: %w", err)
		}
		defer b.Close()
		defer res.Page.Close()
		shareCookies(ctx, embedder, res, logger)
		doc = res.Document
	default:
		loader := fetcher.NewHTTPLoader(cfg.Browser.Timeout, logger)
		doc, err = loader.Load(ctx, target, parseHeaders(headers))
		if err != nil {
			return fmt.Errorf("failed to fetch page: %w", err)
		}
	}

	res, err := export.New(reg, logger).Export(ctx, doc, cfg.ExportOptions())
	if err != nil {
		return err
	}

	out, err := formatter.Format(res, cfg.Format)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	dest := outputFile
	if dest == "" && save {
		dest = filepath.Join(saveDir, fileNameFor(res.Filename, cfg.Format))
	}
	if dest == "" {
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	}
	if err := os.WriteFile(dest, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Output written to: %s (parser: %s)\n", dest, res.Parser)
	return nil
}

// loadRendered launches a browser and loads target in it. The caller closes
// the returned browser and page.
func loadRendered(ctx context.Context, cfg *config.Config, target string, strategy fetcher.WaitStrategy, logger logrus.FieldLogger, withProxy bool) (*browser.Browser, *fetcher.Result, error) {
	bcfg := cfg.BrowserOptions()
	if !withProxy {
		bcfg.ProxyURL = ""
	}
	b, err := browser.New(bcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create browser: %w", err)
	}
	res, err := fetcher.New(b, logger).Fetch(ctx, target, fetcher.Options{
		Headers:    parseHeaders(headers),
		WaitFor:    strategy,
		WaitTarget: waitTarget,
		Timeout:    cfg.Browser.Timeout,
	})
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return b, res, nil
}

// shareCookies hands the browser session cookies to the image embedder so
// images behind a login load too.
func shareCookies(ctx context.Context, e *embed.Embedder, res *fetcher.Result, logger logrus.FieldLogger) {
	u, err := url.Parse(res.URL)
	if err != nil {
		return
	}
	cookies, err := res.Page.Cookies(ctx)
	if err != nil {
		logger.WithError(err).Debug("failed to read browser cookies")
		return
	}
	e.SetCookies(u, cookies)
}

func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(lvl)
	return logger, nil
}

// fileNameFor swaps the .md suffix for the extension of format.
func fileNameFor(name, format string) string {
	ext := map[string]string{
		formatter.FormatHTML: ".html",
		formatter.FormatText: ".txt",
		formatter.FormatJSON: ".json",
	}[format]
	if ext == "" {
		return name
	}
	return strings.TrimSuffix(name, ".md") + ext
}

func describeDomains(domains []parser.DomainPattern) string {
	if len(domains) == 0 {
		return "*"
	}
	parts := make([]string, len(domains))
	for i, d := range domains {
		parts[i] = fmt.Sprintf("%s (%d)", d.Pattern, d.Priority)
	}
	return strings.Join(parts, ", ")
}

func describeCapabilities(c parser.Capabilities) string {
	var caps []string
	if c.OutputsAST {
		caps = append(caps, "ast")
	}
	if c.CodeLangAware {
		caps = append(caps, "code-lang")
	}
	if c.ImageRewriter {
		caps = append(caps, "images")
	}
	if len(caps) == 0 {
		return "-"
	}
	return strings.Join(caps, ", ")
}

// parseHeaders parses request header parameters
func parseHeaders(headerSlice []string) map[string]string {
	headersMap := make(map[string]string)
	for _, h := range headerSlice {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if key != "" {
				headersMap[key] = value
			}
		}
	}
	return headersMap
}

// normalizeURL normalizes URL, adds https:// if no protocol prefix
func normalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return rawURL
	}
	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") && !strings.HasPrefix(lower, "file://") {
		return "https://" + rawURL
	}
	return rawURL
}
