package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "backoffice-cli",
		Short: "Back office CLI tool",
		Long:  `A command line interface for the warehouse back office API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the back office API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(reconciliationCmd(), flagsCmd(), checkCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func reconciliationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconciliation",
		Short: "Reconciliation operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "report",
		Short: "Generate the full consistency report",
		Run: func(cmd *cobra.Command, args []string) {
			data, err := apiGet("/api/v1/reconciliation/report")
			exitOnError(err)
			printJSON(data)
		},
	})

	return cmd
}

func flagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Reconciliation flag triage",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List open reconciliation flags",
		Run: func(cmd *cobra.Command, args []string) {
			data, err := apiGet("/api/v1/flags/")
			exitOnError(err)
			printJSON(data)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "resolve <flag-id>",
		Short: "Close a flag after manual reconciliation",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			_, err := apiPost("/api/v1/flags/" + args[0] + "/resolve")
			exitOnError(err)
			fmt.Printf("flag %s resolved\n", args[0])
		},
	})

	return cmd
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Consistency checks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "account <account-id>",
		Short: "Verify an account's entry chain",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := apiGet("/api/v1/accounts/" + args[0] + "/check")
			exitOnError(err)
			printJSON(data)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "debt <debt-id>",
		Short: "Verify a debt's paid amount against its payments",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := apiGet("/api/v1/debts/" + args[0] + "/check")
			exitOnError(err)
			printJSON(data)
		},
	})

	stockCheck := &cobra.Command{
		Use:   "stock",
		Short: "Verify a stock position against its movement log",
		Run: func(cmd *cobra.Command, args []string) {
			productID, _ := cmd.Flags().GetString("product")
			branchID, _ := cmd.Flags().GetString("branch")
			data, err := apiGet(fmt.Sprintf("/api/v1/stock/check?product_id=%s&branch_id=%s", productID, branchID))
			exitOnError(err)
			printJSON(data)
		},
	}
	stockCheck.Flags().String("product", "", "Product ID")
	stockCheck.Flags().String("branch", "", "Branch ID")
	_ = stockCheck.MarkFlagRequired("product")
	_ = stockCheck.MarkFlagRequired("branch")
	cmd.AddCommand(stockCheck)

	return cmd
}

// envelope mirrors the API response shape.
type envelope struct {
	OK          bool            `json:"ok"`
	Data        json.RawMessage `json:"data"`
	ErrorKind   string          `json:"error_kind"`
	ErrorDetail string          `json:"error_detail"`
}

func apiGet(path string) (json.RawMessage, error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp)
}

func apiPost(path string) (json.RawMessage, error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", strings.NewReader("{}"))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp)
}

func decodeEnvelope(resp *http.Response) (json.RawMessage, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}

	if !env.OK {
		return nil, fmt.Errorf("%s: %s", env.ErrorKind, env.ErrorDetail)
	}

	return env.Data, nil
}

func printJSON(data json.RawMessage) {
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		// Arrays and scalars print as-is.
		fmt.Println(string(data))
		return
	}

	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Println(string(data))
		return
	}
	fmt.Println(string(pretty))
}

func exitOnError(err error) {
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
