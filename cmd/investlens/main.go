// InvestLens — Financial Investment Analyzer
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sbalaji92/investlens/api"
	"github.com/sbalaji92/investlens/internal/agent"
	"github.com/sbalaji92/investlens/internal/config"
	"github.com/sbalaji92/investlens/internal/datasource"
	"github.com/sbalaji92/investlens/internal/llm"
	"github.com/sbalaji92/investlens/internal/search"
	"github.com/sbalaji92/investlens/internal/tools"
	"github.com/sbalaji92/investlens/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "investlens",
	Short: "InvestLens — Financial Investment Analyzer",
	Long: `InvestLens
An agentic financial analysis tool that finds a company's contracted
partners via web search, classifies which of them are publicly traded,
and pulls normalized financial metrics for the public ones.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(partnersCmd)
	rootCmd.AddCommand(tradingCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(weatherCmd)
	rootCmd.AddCommand(timeCmd)
	rootCmd.AddCommand(statusCmd)
}

// buildToolkit wires the market data provider and the LLM into a
// toolkit from the loaded config.
func buildToolkit() (*tools.Toolkit, llm.LLMProvider, error) {
	yf := datasource.NewYFinance()

	var provider llm.LLMProvider
	if cfg.LLM.GeminiKey != "" {
		p, err := llm.NewGeminiProvider(cfg.LLM.GeminiKey, llm.WithGeminiModel(cfg.LLM.Model))
		if err != nil {
			return nil, nil, err
		}
		provider = p
	}

	return tools.NewToolkit(yf, provider, cfg.LLM.Model), provider, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Minute)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("InvestLens %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting InvestLens API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Search Command (aggregated analysis) ---

var searchCmd = &cobra.Command{
	Use:   "search [company]",
	Short: "Find a company's partners and analyze the public ones",
	Long: `Run the full analysis for a company: web-search its contracted
partners, classify which of them trade publicly, and fetch financial
metrics for the public ones.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		company := strings.Join(args, " ")

		toolkit, _, err := buildToolkit()
		if err != nil {
			return err
		}
		svc := search.NewService(toolkit, func(stage, detail string) {
			fmt.Printf("  [%s] %s\n", stage, detail)
		})

		ctx, cancel := commandContext()
		defer cancel()

		fmt.Printf("🔍 Analyzing partners of %s\n", company)
		analysis, err := svc.Analyze(ctx, company)
		if err != nil {
			return err
		}

		fmt.Printf("\n%s\n", analysis.PartnerReport)
		fmt.Printf("\nMatched companies (%d): %s\n",
			analysis.TotalFound, strings.Join(analysis.ContractedCompanies, ", "))
		fmt.Printf("Publicly traded: %d\n\n", analysis.PublicCount)
		for _, m := range analysis.FinancialData {
			fmt.Printf("── %s (%s) ──\n", m.CompanyName, m.Ticker)
			printSummary(m.Summary.AnnualRevenue, m.Summary.NetIncome, m.Summary.MarketCap)
		}
		return nil
	},
}

func printSummary(revenue, netIncome, marketCap string) {
	fmt.Printf("  Revenue:    %s\n", revenue)
	fmt.Printf("  Net Income: %s\n", netIncome)
	fmt.Printf("  Market Cap: %s\n\n", marketCap)
}

// --- Metrics Command ---

var metricsCmd = &cobra.Command{
	Use:   "metrics [ticker]",
	Short: "Fetch financial metrics for a stock ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])

		toolkit, _, err := buildToolkit()
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()

		result, err := toolkit.GetFinancialMetrics(ctx, ticker)
		if err != nil {
			return err
		}

		s := result.Summary
		fmt.Printf("📈 %s — fiscal year %s\n\n", result.Metrics.CompanyName, result.FiscalYear)
		fmt.Printf("  Market Cap:       %s\n", s.MarketCap)
		fmt.Printf("  Annual Revenue:   %s\n", s.AnnualRevenue)
		fmt.Printf("  Gross Profit:     %s\n", s.GrossProfit)
		fmt.Printf("  Operating Income: %s\n", s.OperatingIncome)
		fmt.Printf("  Net Income:       %s\n", s.NetIncome)
		fmt.Printf("  Gross Margin:     %s\n", s.GrossMargin)
		fmt.Printf("  Operating Margin: %s\n", s.OperatingMargin)
		fmt.Printf("  Net Margin:       %s\n", s.NetMargin)

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			fmt.Printf("\n%s\n", result.JSONData)
		}
		return nil
	},
}

func init() {
	metricsCmd.Flags().Bool("json", false, "also print the full metrics JSON")
}

// --- Partners Command ---

var partnersCmd = &cobra.Command{
	Use:   "partners [company]",
	Short: "Find contracted companies and business partners",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		company := strings.Join(args, " ")

		toolkit, _, err := buildToolkit()
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()

		report, err := toolkit.FindContractedCompanies(ctx, company)
		if err != nil {
			return err
		}

		fmt.Println(report.Report)
		return nil
	},
}

// --- Trading Status Command ---

var tradingCmd = &cobra.Command{
	Use:   "trading-status [companies]",
	Short: "Check whether companies are publicly traded",
	Long: `Check the public trading status of a comma-separated list of
company names.

Example:
  investlens trading-status "Microsoft, Accenture, PWC"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		toolkit, _, err := buildToolkit()
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()

		report, err := toolkit.CheckPublicTradingStatus(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Println(report.Report)
		return nil
	},
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news [ticker]",
	Short: "Show recent headlines for a stock ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.DataSource.NewsLimit
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		items, err := datasource.NewNews().GetCompanyNews(ctx, ticker, limit)
		if err != nil {
			return err
		}

		fmt.Printf("📰 Recent news for %s\n\n", ticker)
		for _, item := range items {
			fmt.Printf("  • %s\n", item.Title)
			if item.Published != "" {
				fmt.Printf("    %s\n", item.Published)
			}
			fmt.Printf("    %s\n", item.Link)
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().Int("limit", 0, "maximum number of headlines")
}

// --- Chat Command ---

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the financial investment analyzer agent",
	Long: `Send a single message to the analyzer agent, or start an
interactive session when no message is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		toolkit, provider, err := buildToolkit()
		if err != nil {
			return err
		}
		if provider == nil {
			return fmt.Errorf("no Gemini API key configured; set INVESTLENS_LLM_GEMINI_KEY")
		}

		analyzer := agent.NewAnalyzer(agent.Config{
			Provider: provider,
			Toolkit:  toolkit,
			ChatOptions: &llm.ChatOptions{
				Model:       cfg.LLM.Model,
				Temperature: cfg.LLM.Temperature,
				MaxTokens:   cfg.LLM.MaxTokens,
			},
			MemorySize:  cfg.Agent.MemorySize,
			MaxToolIter: cfg.Agent.MaxToolIterations,
		})

		if len(args) > 0 {
			return runChatTurn(analyzer, strings.Join(args, " "))
		}

		fmt.Println("💬 InvestLens Chat (type 'exit' to quit)")
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				break
			}
			if err := runChatTurn(analyzer, line); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		}
		return scanner.Err()
	},
}

func runChatTurn(analyzer *agent.Analyzer, message string) error {
	ctx, cancel := commandContext()
	defer cancel()

	result, err := analyzer.Chat(ctx, message)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n\n", result.Content)
	if result.ToolCalls > 0 {
		fmt.Printf("  (%d tool calls, %d tokens, %s)\n",
			result.ToolCalls, result.Tokens, result.Duration.Round(time.Millisecond))
	}
	return nil
}

// --- Weather / Time Commands ---

var weatherCmd = &cobra.Command{
	Use:   "weather [city]",
	Short: "Show the weather report for a city",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		toolkit, _, err := buildToolkit()
		if err != nil {
			return err
		}

		report, err := toolkit.GetWeather(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(report)
		return nil
	},
}

var timeCmd = &cobra.Command{
	Use:   "time [city]",
	Short: "Show the current time in a city",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		toolkit, _, err := buildToolkit()
		if err != nil {
			return err
		}

		report, err := toolkit.GetCurrentTime(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(report)
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  InvestLens — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    LLM Model:   %s\n", cfg.LLM.Model)
		fmt.Printf("    API Server:  %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("    Cache TTL:   %ds\n", cfg.DataSource.CacheTTL)
		fmt.Println()

		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-20s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
