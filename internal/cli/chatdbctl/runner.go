package chatdbctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

type usageError struct {
	err error
}

func (e usageError) Error() string {
	return e.err.Error()
}

// Run executes one chatdbctl invocation and returns the process exit code:
// 0 on success, 1 on request failure and 2 on usage errors.
func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	root := newRootCommand(defaults)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
	var usage usageError
	if errors.As(err, &usage) || strings.HasPrefix(err.Error(), "unknown command") {
		_, _ = fmt.Fprintln(stderr, root.UsageString())
		return 2
	}
	return 1
}

type client struct {
	baseURL string
	http    *http.Client
}

func newRootCommand(defaults Options) *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)
	root := &cobra.Command{
		Use:           "chatdbctl",
		Short:         "Ask questions of a chatdb API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&baseURL, "base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:3000"), "chatdb API base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", durationOr(defaults.Timeout, 60*time.Second), "HTTP timeout (e.g. 30s)")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	newClient := func() *client {
		httpClient := defaults.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: timeout}
		}
		return &client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "health",
			Short: "Show generation and database availability",
			Args:  noArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				body, err := newClient().do(cmd.Context(), http.MethodGet, "/api/health", nil)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), body)
			},
		},
		&cobra.Command{
			Use:   "ready",
			Short: "Check server readiness",
			Args:  noArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				body, err := newClient().do(cmd.Context(), http.MethodGet, "/api/ready", nil)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), body)
			},
		},
		&cobra.Command{
			Use:   "schema",
			Short: "Print the schema description sent to the model",
			Args:  noArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				body, err := newClient().do(cmd.Context(), http.MethodGet, "/api/debug/schema", nil)
				if err != nil {
					return err
				}
				var decoded struct {
					Schema string `json:"schema"`
				}
				if err := json.Unmarshal(body, &decoded); err != nil {
					return fmt.Errorf("decode schema response: %w", err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), decoded.Schema)
				return err
			},
		},
		newAskCommand(newClient),
	)
	return root
}

func newAskCommand(newClient func() *client) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a natural-language question",
		Args: func(_ *cobra.Command, args []string) error {
			if strings.TrimSpace(strings.Join(args, " ")) == "" {
				return usageError{err: errors.New("a question is required")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := json.Marshal(map[string]string{"message": strings.Join(args, " ")})
			if err != nil {
				return err
			}
			body, err := newClient().do(cmd.Context(), http.MethodPost, "/api/chat", payload)
			if err != nil {
				return err
			}
			if raw {
				return printJSON(cmd.OutOrStdout(), body)
			}
			return printAnswer(cmd.OutOrStdout(), body)
		},
	}
	cmd.Flags().BoolVar(&raw, "json", false, "print the raw response envelope")
	return cmd
}

func noArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError{err: fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))}
	}
	return nil
}

func (c *client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}

func printAnswer(w io.Writer, body []byte) error {
	var envelope struct {
		SQLQuery *string          `json:"sqlQuery"`
		Response string           `json:"response"`
		Data     *json.RawMessage `json:"data"`
		Error    string           `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode chat response: %w", err)
	}
	_, _ = fmt.Fprintln(w, envelope.Response)
	if envelope.SQLQuery != nil {
		_, _ = fmt.Fprintf(w, "\nSQL: %s\n", *envelope.SQLQuery)
	}
	if envelope.Data != nil {
		_, _ = fmt.Fprintln(w)
		if err := printJSON(w, *envelope.Data); err != nil {
			return err
		}
	}
	if envelope.Error != "" {
		return fmt.Errorf("query failed: %s", envelope.Error)
	}
	return nil
}

func printJSON(w io.Writer, raw []byte) error {
	if pretty, ok := prettyJSON(raw); ok {
		_, err := fmt.Fprintln(w, pretty)
		return err
	}
	if len(raw) > 0 {
		_, err := fmt.Fprintln(w, string(raw))
		return err
	}
	return nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
