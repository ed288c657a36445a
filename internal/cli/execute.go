package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ontree-co/sitegen/internal/version"
)

// Execute runs the CLI with the provided args and manager.
func Execute(args []string, manager Manager, out, errOut io.Writer) int {
	return ExecuteContext(context.Background(), args, manager, out, errOut)
}

// ExecuteContext is Execute with a caller-supplied context, typically one
// cancelled on SIGINT.
func ExecuteContext(ctx context.Context, args []string, manager Manager, out, errOut io.Writer) int {
	cmd := NewRootCommand(manager, out, errOut)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			if !usageErr.reported {
				_, _ = fmt.Fprintln(errOut, "Error:", err)
			}
			return ExitInvalidUsage
		}
		return ExitRuntimeError
	}
	return ExitSuccess
}

// NewRootCommand builds the root CLI command tree.
func NewRootCommand(manager Manager, out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "sitegen",
		Short:         "generate websites with the AI website generator service",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.PersistentFlags().Bool("json", false, "output JSONL")

	root.AddCommand(newGenerateCommand(manager))
	root.AddCommand(newStatusCommand(manager))
	root.AddCommand(newWaitCommand(manager))
	root.AddCommand(newDownloadCommand(manager))
	root.AddCommand(newPreviewCommand(manager))
	root.AddCommand(newShowCommand(manager))
	root.AddCommand(newCatalogCommand(manager))
	root.AddCommand(newInfoCommand(manager))
	root.AddCommand(newVersionCommand())

	return root
}

type usageError struct {
	err error
	// reported is set when the cause was already written as an event.
	reported bool
}

func (u *usageError) Error() string {
	if u.err == nil {
		return "invalid usage"
	}
	return u.err.Error()
}

func requireArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return &usageError{err: fmt.Errorf("requires %d argument(s)", n)}
		}
		if strings.TrimSpace(args[0]) == "" {
			return &usageError{err: fmt.Errorf("job id must not be blank")}
		}
		return nil
	}
}

func noArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &usageError{err: fmt.Errorf("unexpected argument %q", args[0])}
	}
	return nil
}

// formFlags maps form field names to the flags that set them.
var formFlags = map[string]string{
	"website_type":    "type",
	"business_name":   "name",
	"description":     "description",
	"target_audience": "audience",
	"color_scheme":    "color-scheme",
}

func newGenerateCommand(manager Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "submit a website generation request",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			features, _ := cmd.Flags().GetStringArray("feature")
			pages, _ := cmd.Flags().GetStringArray("page")
			removePages, _ := cmd.Flags().GetStringArray("remove-page")
			wait, _ := cmd.Flags().GetBool("wait")

			fields := make(map[string]string)
			for field, flag := range formFlags {
				if cmd.Flags().Changed(flag) {
					fields[field], _ = cmd.Flags().GetString(flag)
				}
			}

			target, err := targetFromFlags(cmd)
			if err != nil {
				return err
			}
			save := target != (Target{})

			opts, err := waitOptionsFromFlags(cmd)
			if err != nil {
				return err
			}

			return streamEvents(cmd, manager.Generate(cmd.Context(), GenerateRequest{
				Form: FormInput{
					File:        file,
					Fields:      fields,
					Features:    features,
					Pages:       pages,
					RemovePages: removePages,
				},
				Wait:        wait || save,
				Save:        save,
				Target:      target,
				WaitOptions: opts,
			}))
		},
	}
	cmd.Flags().String("file", "", "YAML site description")
	cmd.Flags().String("type", "", "website type")
	cmd.Flags().String("name", "", "business name")
	cmd.Flags().String("description", "", "business description")
	cmd.Flags().String("audience", "", "target audience")
	cmd.Flags().String("color-scheme", "", "color scheme")
	cmd.Flags().StringArray("feature", nil, "feature to include (repeatable)")
	cmd.Flags().StringArray("page", nil, "page to add (repeatable)")
	cmd.Flags().StringArray("remove-page", nil, "page to remove (repeatable)")
	cmd.Flags().Bool("wait", false, "wait for generation to finish")
	addTargetFlags(cmd)
	addWaitFlags(cmd)
	return cmd
}

func newStatusCommand(manager Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "show the status of a generation job",
		Args:  requireArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := manager.Status(cmd.Context(), args[0])
			if err != nil {
				return writeError(cmd, err)
			}
			msg := fmt.Sprintf("%s: %s", status.ID, status.Status)
			if status.Message != "" {
				msg += " (" + status.Message + ")"
			}
			return writeEvent(cmd, ProgressEvent{Type: "result", Message: msg, Data: status})
		},
	}
}

func newWaitCommand(manager Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wait <id>",
		Short: "poll a generation job until it finishes",
		Args:  requireArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := waitOptionsFromFlags(cmd)
			if err != nil {
				return err
			}
			return streamEvents(cmd, manager.Wait(cmd.Context(), args[0], opts))
		},
	}
	addWaitFlags(cmd)
	return cmd
}

func newDownloadCommand(manager Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "download the generated files",
		Args:  requireArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := targetFromFlags(cmd)
			if err != nil {
				return err
			}
			return streamEvents(cmd, manager.Download(cmd.Context(), args[0], target))
		},
	}
	addTargetFlags(cmd)
	return cmd
}

func newPreviewCommand(manager Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <id>",
		Short: "serve the generated site locally and open it in a browser",
		Args:  requireArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetInt("port")
			noOpen, _ := cmd.Flags().GetBool("no-open")
			duration, _ := cmd.Flags().GetDuration("duration")
			if port < 0 || port > 65535 {
				return &usageError{err: fmt.Errorf("invalid port %d", port)}
			}
			if duration < 0 {
				return &usageError{err: fmt.Errorf("duration must not be negative")}
			}
			return streamEvents(cmd, manager.Preview(cmd.Context(), args[0], PreviewOptions{
				Port:     port,
				NoOpen:   noOpen,
				Duration: duration,
			}))
		},
	}
	cmd.Flags().Int("port", 0, "local port (0 picks a free one)")
	cmd.Flags().Bool("no-open", false, "do not open a browser")
	cmd.Flags().Duration("duration", 0, "stop serving after this long (0 serves until interrupted)")
	return cmd
}

var showTabs = []string{"preview", "html", "css", "js"}

func newShowCommand(manager Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "print one tab of a completed website",
		Args:  requireArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, _ := cmd.Flags().GetString("tab")
			if !slices.Contains(showTabs, tab) {
				return &usageError{err: fmt.Errorf("invalid tab %q (choose from %s)", tab, strings.Join(showTabs, ", "))}
			}
			view, err := manager.Show(cmd.Context(), args[0], tab)
			if err != nil {
				return writeError(cmd, err)
			}
			return writeEvent(cmd, ProgressEvent{Type: "result", Message: view.Content, Data: view})
		},
	}
	cmd.Flags().String("tab", "preview", "tab to print: preview, html, css or js")
	return cmd
}

func newCatalogCommand(manager Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "list website types, color schemes, features and default pages",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := manager.Catalog()
			var b strings.Builder
			writeList(&b, "Website types", c.WebsiteTypes)
			writeList(&b, "Color schemes", c.ColorSchemes)
			writeList(&b, "Features", c.Features)
			writeList(&b, "Default pages", c.DefaultPages)
			writeList(&b, "Generation steps", c.GenerationSteps)
			return writeEvent(cmd, ProgressEvent{
				Type:    "result",
				Message: strings.TrimRight(b.String(), "\n"),
				Data:    c,
			})
		},
	}
}

func newInfoCommand(manager Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "show information about the generation service",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := manager.Info(cmd.Context())
			if err != nil {
				return writeError(cmd, err)
			}
			msg := info.Message
			if info.Version != "" {
				msg += " (version " + info.Version + ")"
			}
			return writeEvent(cmd, ProgressEvent{Type: "result", Message: msg, Data: info})
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version information",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			return writeEvent(cmd, ProgressEvent{Type: "result", Message: strings.TrimRight(info.String(), "\n"), Data: info})
		},
	}
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", "", "directory to write files into")
	cmd.Flags().String("zip", "", "zip archive to write")
	cmd.Flags().String("bucket", "", "S3 bucket to upload into")
	cmd.Flags().String("prefix", "", "object key prefix inside the bucket")
}

func targetFromFlags(cmd *cobra.Command) (Target, error) {
	var t Target
	t.Dir, _ = cmd.Flags().GetString("out")
	t.Zip, _ = cmd.Flags().GetString("zip")
	t.Bucket, _ = cmd.Flags().GetString("bucket")
	t.Prefix, _ = cmd.Flags().GetString("prefix")

	set := 0
	for _, v := range []string{t.Dir, t.Zip, t.Bucket} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return Target{}, &usageError{err: fmt.Errorf("--out, --zip and --bucket are mutually exclusive")}
	}
	if t.Prefix != "" && t.Bucket == "" {
		return Target{}, &usageError{err: fmt.Errorf("--prefix requires --bucket")}
	}
	return t, nil
}

func addWaitFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("interval", 0, "status poll interval (default from config)")
	cmd.Flags().Duration("timeout", 0, "give up waiting after this long (0 waits forever)")
	cmd.Flags().Int("max-errors", 0, "stop after this many consecutive failed status checks (0 never stops)")
}

func waitOptionsFromFlags(cmd *cobra.Command) (WaitOptions, error) {
	interval, _ := cmd.Flags().GetDuration("interval")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	maxErrors, _ := cmd.Flags().GetInt("max-errors")
	if interval < 0 || timeout < 0 {
		return WaitOptions{}, &usageError{err: fmt.Errorf("durations must not be negative")}
	}
	if maxErrors < 0 {
		return WaitOptions{}, &usageError{err: fmt.Errorf("--max-errors must not be negative")}
	}
	return WaitOptions{Interval: interval, Timeout: timeout, MaxErrors: maxErrors}, nil
}

func writeList(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

func streamEvents(cmd *cobra.Command, events <-chan ProgressEvent) error {
	ctx := cmd.Context()
	jsonOutput, _ := cmd.Flags().GetBool("json")
	hasError := false
	invalidInput := false
	for event := range events {
		if err := writeEventWithContext(ctx, cmd, event, jsonOutput); err != nil {
			return err
		}
		if event.Type == "error" {
			hasError = true
			if event.Code == codeValidationFailed || event.Code == codeInvalidInput {
				invalidInput = true
			}
		}
	}
	if invalidInput {
		return &usageError{err: fmt.Errorf("invalid input"), reported: true}
	}
	if hasError {
		return &runtimeError{err: fmt.Errorf("operation failed")}
	}
	return nil
}

type runtimeError struct {
	err error
}

func (r *runtimeError) Error() string {
	if r.err == nil {
		return "runtime error"
	}
	return r.err.Error()
}

func writeError(cmd *cobra.Command, err error) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	_ = writeEventWithContext(cmd.Context(), cmd, ProgressEvent{
		Type:    "error",
		Message: err.Error(),
	}, jsonOutput)
	return &runtimeError{err: err}
}

func writeEvent(cmd *cobra.Command, event ProgressEvent) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return writeEventWithContext(cmd.Context(), cmd, event, jsonOutput)
}

func writeEventWithContext(ctx context.Context, cmd *cobra.Command, event ProgressEvent, jsonOutput bool) error {
	if jsonOutput {
		// The final events of a cancelled operation still go out so that
		// consumers see why it ended.
		encoder := json.NewEncoder(cmd.OutOrStdout())
		return encoder.Encode(event)
	}
	if err := ctx.Err(); err != nil && event.Type != "error" {
		return nil
	}
	if event.Message == "" {
		return nil
	}
	switch event.Type {
	case "error":
		_, err := fmt.Fprintln(cmd.ErrOrStderr(), "Error:", event.Message)
		return err
	case "warning":
		_, err := fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", event.Message)
		return err
	case "progress":
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "[%3d%%] %s\n", event.Percent, event.Message)
		return err
	default:
		_, err := fmt.Fprintln(cmd.OutOrStdout(), event.Message)
		return err
	}
}
