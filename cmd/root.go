package cmd

import (
	"fmt"
	u "net/url"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/siphondl/siphon/internal/output"
	"github.com/siphondl/siphon/internal/scheduler"
	"github.com/siphondl/siphon/internal/utils"
	"github.com/spf13/cobra"
)

var (
	outputPath    string
	connections   int
	workers       int
	timeout       time.Duration
	kaTimeout     time.Duration
	userAgent     string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	headers       []string
	speedLimit    string
	resume        bool
	debug         bool
	fileLog       bool
)

var (
	globalHTTPConfig utils.HTTPClientConfig
	speedLimitBytes  int64
)

var SiphonVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "siphon [URL]",
	Short:   "Siphon is a fast CLI download manager",
	Version: SiphonVersion,
	Args:    cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.InitLogger(debug)
		if userAgent == "randomize" {
			userAgent = utils.GetRandomUserAgent()
		}
		// Pull auth out of the proxy URL so the transport gets a clean address
		parsedProxy, err := u.Parse(proxyURL)
		if err == nil && parsedProxy.User != nil && proxyUsername == "" {
			proxyUsername = parsedProxy.User.Username()
			if password, set := parsedProxy.User.Password(); set {
				proxyPassword = password
			}
			parsedProxy.User = nil
			proxyURL = parsedProxy.String()
		}
		globalHTTPConfig = utils.HTTPClientConfig{
			Timeout:       timeout,
			KATimeout:     kaTimeout,
			ProxyURL:      proxyURL,
			ProxyUsername: proxyUsername,
			ProxyPassword: proxyPassword,
			UserAgent:     userAgent,
			Headers:       utils.ParseHeaderArgs(headers),
		}
		if speedLimit != "" {
			limit, err := humanize.ParseBytes(speedLimit)
			if err != nil {
				return fmt.Errorf("invalid speed limit %q: %v", speedLimit, err)
			}
			speedLimitBytes = int64(limit)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Help()
			return
		}
		url := args[0]
		if _, err := u.Parse(url); err != nil {
			output.PrintError("Invalid URL format")
			os.Exit(1)
		}
		job := utils.Job{
			JobType:          utils.DetectJobType(url),
			URL:              url,
			OutputPath:       outputPath,
			Connections:      connections,
			Resume:           resume,
			SpeedLimit:       speedLimitBytes,
			HTTPClientConfig: globalHTTPConfig,
			Metadata:         make(map[string]any),
		}
		if err := scheduler.Run([]utils.Job{job}, workers, fileLog); err != nil {
			fmt.Println()
			output.PrintError("Encountered failed operation(s)")
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "Output file path (Siphon infers file name if not provided)")
	rootCmd.PersistentFlags().IntVarP(&connections, "connections", "c", 8, "Number of connections per download (above 5 enables high-thread-mode)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 1, "Number of downloads to run in parallel")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Connection timeout (eg. 5s, 10m)")
	rootCmd.PersistentFlags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.PersistentFlags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent ('randomize' picks a browser agent)")
	rootCmd.PersistentFlags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.PersistentFlags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")
	rootCmd.PersistentFlags().StringVar(&speedLimit, "limit", "", "Per-download speed limit (eg. 500KB, 2MB)")
	rootCmd.PersistentFlags().BoolVar(&resume, "resume", true, "Resume partial downloads from existing part files")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&fileLog, "log-file", false, "Write logs to "+utils.LogFile+" instead of stderr")

	rootCmd.AddCommand(newHTTPCmd())
	rootCmd.AddCommand(newS3Cmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newCleanCmd())
}
