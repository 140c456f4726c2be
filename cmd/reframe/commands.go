package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/reframe/internal/config"
	"github.com/kalambet/reframe/internal/journal"
	"github.com/kalambet/reframe/internal/storage"
	"github.com/kalambet/reframe/internal/suggest"
	"github.com/kalambet/reframe/internal/thought"
	"github.com/kalambet/reframe/internal/wizard"
)

// --- new ---

var errQuit = errors.New("thought record abandoned")

// pollInterval and settleTimeout bound how long the wizard waits for the
// suggestion and insight requests of a step.
var (
	pollInterval  = 300 * time.Millisecond
	settleTimeout = 30 * time.Second
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Fill in a thought record step by step",
	Long: `Fill in a thought record step by step.

At each step, type your answer, or the number of a suggestion to use it.
For cognitive distortions, list names or numbers separated by commas.
Leave the line empty to skip, ":back" to go back, ":quit" to stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		err = runWizard(cmd.Context(), client, cmd.InOrStdin(), cmd.OutOrStdout(), owner)
		if errors.Is(err, errQuit) {
			printWarning("%v", err)
			return nil
		}
		return err
	},
}

func init() {
	newCmd.Flags().String("owner", "", "record owner (default: the server's default owner)")
}

func runWizard(ctx context.Context, c *apiClient, in io.Reader, out io.Writer, owner string) error {
	var body any
	if owner != "" {
		body = map[string]string{"owner_id": owner}
	}
	var snap wizard.Snapshot
	resp, err := c.post(ctx, "/v1/sessions", body)
	if err != nil {
		return err
	}
	if err := decodeJSON(resp, &snap); err != nil {
		return err
	}
	defer func() {
		if resp, err := c.delete(context.Background(), "/v1/sessions/"+snap.ID); err == nil {
			resp.Body.Close()
		}
	}()
	base := "/v1/sessions/" + snap.ID

	scanner := bufio.NewScanner(in)
	for {
		snap, err = waitSettled(ctx, c, snap.ID)
		if err != nil {
			return err
		}
		if snap.Review {
			fmt.Fprintln(out)
			if snap.LastSubmitted != nil {
				writeRecord(out, *snap.LastSubmitted)
			}
			writeInsight(out, snap.Insight)
			printSuccess("Thought record saved")
			return nil
		}

		f := snap.Field
		fmt.Fprintf(out, "\n%s %s\n", colorize(colorBold, fmt.Sprintf("Step %d/%d:", snap.Step+1, snap.Steps)), f.Label)
		fmt.Fprintln(out, colorize(colorDim, f.Prompt))
		writeInsight(out, snap.Insight)
		if snap.SuggestionState.Status == wizard.Failed {
			printWarning("suggestions unavailable: %s", snap.SuggestionState.Error)
		}
		writeSuggestions(out, snap.Suggestions)
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return errQuit
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case ":quit", ":q":
			return errQuit
		case ":back", ":b":
			if err := sessionCall(ctx, c, base+"/back"); err != nil {
				return err
			}
			continue
		}

		if err := answer(ctx, c, base, *f, snap.Suggestions, line); err != nil {
			return err
		}
		if err := sessionCall(ctx, c, base+"/next"); err != nil {
			// The session keeps its answers; the user can try again.
			printError("%v", err)
		}
	}
}

// answer stores one line of input for field f.
func answer(ctx context.Context, c *apiClient, base string, f thought.Field, suggestions []string, line string) error {
	if line == "" {
		return nil
	}
	pick := func(s string) (string, bool) {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > len(suggestions) {
			return "", false
		}
		return suggestions[n-1], true
	}

	if f.Kind == thought.MultiSelect {
		for part := range strings.SplitSeq(line, ",") {
			name := strings.TrimSpace(part)
			if name == "" {
				continue
			}
			if s, ok := pick(name); ok {
				name = s
			}
			resp, err := c.post(ctx, base+"/distortions", map[string]string{"text": name})
			if err != nil {
				return err
			}
			if err := decodeJSON(resp, nil); err != nil {
				return err
			}
		}
		return nil
	}

	if s, ok := pick(line); ok {
		resp, err := c.post(ctx, base+"/suggestions/select", map[string]string{"field": f.Key, "text": s})
		if err != nil {
			return err
		}
		return decodeJSON(resp, nil)
	}
	resp, err := c.put(ctx, base+"/fields/"+f.Key, map[string]string{"value": line})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

func sessionCall(ctx context.Context, c *apiClient, path string) error {
	resp, err := c.post(ctx, path, nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

// waitSettled polls the session until neither pipeline is loading or
// settleTimeout passes, and returns the latest snapshot either way.
func waitSettled(ctx context.Context, c *apiClient, id string) (wizard.Snapshot, error) {
	deadline := time.Now().Add(settleTimeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		var snap wizard.Snapshot
		resp, err := c.get(ctx, "/v1/sessions/"+id)
		if err != nil {
			return snap, err
		}
		if err := decodeJSON(resp, &snap); err != nil {
			return snap, err
		}
		loading := snap.SuggestionState.Status == wizard.Loading || snap.InsightState.Status == wizard.Loading
		if !loading || time.Now().After(deadline) {
			return snap, nil
		}

		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-ticker.C:
		}
	}
}

// --- records ---

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Browse submitted thought records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent thought records",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		owner, _ := cmd.Flags().GetString("owner")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		records, err := listRecords(cmd.Context(), client, owner, limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No thought records found.")
			return nil
		}
		for _, r := range records {
			writeRecord(cmd.OutOrStdout(), r)
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}

func init() {
	recordsListCmd.Flags().Int("limit", 20, "maximum number of records to list")
	recordsListCmd.Flags().String("owner", "", "record owner (default: the server's default owner)")
	recordsCmd.AddCommand(recordsListCmd)
}

func listRecords(ctx context.Context, c *apiClient, owner string, limit int) ([]storage.ThoughtRecord, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if owner != "" {
		q.Set("owner_id", owner)
	}
	resp, err := c.get(ctx, "/v1/records?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var records []storage.ThoughtRecord
	if err := decodeJSON(resp, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// --- suggest ---

var suggestCmd = &cobra.Command{
	Use:   "suggest <field>",
	Short: "Suggest answers for one field without a session",
	Long: `Suggest answers for one field without a session.

Examples:
  reframe suggest ants --context "Situation: My manager moved our 1:1"
  reframe suggest balancedThought --context-file ./draft.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		field := args[0]
		recordContext, _ := cmd.Flags().GetString("context")
		if file, _ := cmd.Flags().GetString("context-file"); file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading context file: %w", err)
			}
			recordContext = string(data)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		items, in, err := fetchSuggestions(cmd.Context(), client, field, recordContext)
		if err != nil {
			return err
		}
		writeSuggestions(cmd.OutOrStdout(), items)
		writeInsight(cmd.OutOrStdout(), in)
		return nil
	},
}

func init() {
	suggestCmd.Flags().String("context", "", `earlier answers as "Label: value" lines`)
	suggestCmd.Flags().String("context-file", "", "read the context from a file")
}

// fetchSuggestions runs the field and insight requests for field
// concurrently, the way entering its step does.
func fetchSuggestions(ctx context.Context, c *apiClient, field, recordContext string) ([]string, suggest.Insight, error) {
	f, ok := thought.Lookup(field)
	if !ok {
		return nil, suggest.Insight{}, fmt.Errorf("unknown field %q", field)
	}
	step := thought.Index(f.Key)

	var (
		items []string
		in    suggest.Insight
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := c.post(gctx, "/v1/suggestions", map[string]string{"field": f.Key, "context": recordContext})
		if err != nil {
			return err
		}
		var body struct {
			Suggestions []string `json:"suggestions"`
		}
		if err := decodeJSON(resp, &body); err != nil {
			return fmt.Errorf("suggestions: %w", err)
		}
		items = body.Suggestions
		return nil
	})
	if step > 0 {
		g.Go(func() error {
			resp, err := c.post(gctx, "/v1/insights", map[string]any{"step": step, "context": recordContext})
			if err != nil {
				return err
			}
			if err := decodeJSON(resp, &in); err != nil {
				return fmt.Errorf("insights: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, suggest.Insight{}, err
	}
	return items, in, nil
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze <distortions|challenge|balanced>",
	Short: "Analyze an automatic negative thought",
	Long: `Analyze an automatic negative thought.

Examples:
  reframe analyze distortions --ants "I always mess up presentations"
  reframe analyze challenge --ants "Nobody wants me on the team"
  reframe analyze balanced --ants "I'm a failure" --distortions "Labeling" --evidence "I shipped two projects"`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(suggest.AnalyzeDistortions), string(suggest.AnalyzeChallenge), string(suggest.AnalyzeBalanced)},
	RunE: func(cmd *cobra.Command, args []string) error {
		ants, _ := cmd.Flags().GetString("ants")
		distortions, _ := cmd.Flags().GetString("distortions")
		evidence, _ := cmd.Flags().GetString("evidence")
		if ants == "" {
			return fmt.Errorf("--ants is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/analysis", map[string]string{
			"kind":             args[0],
			"ants":             ants,
			"distortions":      distortions,
			"evidence_against": evidence,
		})
		if err != nil {
			return err
		}
		var body struct {
			Items []string `json:"items"`
		}
		if err := decodeJSON(resp, &body); err != nil {
			return err
		}
		writeSuggestions(cmd.OutOrStdout(), body.Items)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("ants", "", "the automatic negative thought")
	analyzeCmd.Flags().String("distortions", "", "comma-separated distortions (balanced)")
	analyzeCmd.Flags().String("evidence", "", "evidence against the thought (balanced)")
}

// --- journal ---

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Keep journal entries and read their reflections",
}

var journalAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a journal entry",
	Long: `Add a journal entry. The text comes from the argument, --file, or stdin.

Entry types are journal (default), gratitude and strength. Moods are
happy, content, neutral, sad and very-sad.

Examples:
  reframe journal add "Long day. Felt invisible in the planning meeting."
  reframe journal add --file ./tonight.md --title "Tuesday" --mood sad --tag work
  reframe journal add --type gratitude --category people "My sister called"
  pbpaste | reframe journal add`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		file, _ := cmd.Flags().GetString("file")
		entryType, _ := cmd.Flags().GetString("type")
		mood, _ := cmd.Flags().GetString("mood")
		category, _ := cmd.Flags().GetString("category")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		public, _ := cmd.Flags().GetBool("public")

		var content string
		switch {
		case len(args) == 1:
			content = args[0]
		case file != "":
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			content = string(data)
		default:
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			content = string(data)
		}
		if strings.TrimSpace(content) == "" {
			return fmt.Errorf("journal entry is empty")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/journal", map[string]any{
			"type":       entryType,
			"title":      title,
			"content":    content,
			"mood":       mood,
			"category":   category,
			"tags":       tags,
			"is_private": !public,
		})
		if err != nil {
			return err
		}
		var e storage.JournalEntry
		if err := decodeJSON(resp, &e); err != nil {
			return err
		}
		printSuccess("Saved %q (%s); reflection queued", e.Title, shortID(e.ID))
		return nil
	},
}

var journalImportCmd = &cobra.Command{
	Use:   "import <file.pdf>",
	Short: "Import a PDF as a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		q := url.Values{"filename": {filepath.Base(path)}}
		resp, err := client.upload(cmd.Context(), "/v1/journal/import?"+q.Encode(), "application/pdf", data)
		if err != nil {
			return err
		}
		var e storage.JournalEntry
		if err := decodeJSON(resp, &e); err != nil {
			return err
		}
		printSuccess("Imported %q (%s, %d characters)", e.Title, shortID(e.ID), len([]rune(e.Content)))
		return nil
	},
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		entryType, _ := cmd.Flags().GetString("type")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		q := url.Values{"limit": {strconv.Itoa(limit)}}
		if entryType != "" {
			q.Set("type", entryType)
		}
		resp, err := client.get(cmd.Context(), "/v1/journal?"+q.Encode())
		if err != nil {
			return err
		}
		var entries []storage.JournalEntry
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No journal entries found.")
			return nil
		}
		for _, e := range entries {
			marker := " "
			if e.Insights != "" {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s  %-9s %s %s\n",
				marker,
				colorize(colorCyan, shortID(e.ID)),
				e.CreatedAt.Local().Format("2006-01-02"),
				e.Type,
				moodEmoji(e.Mood),
				e.Title,
			)
		}
		return nil
	},
}

var journalShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a journal entry and its reflection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/v1/journal/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		var e storage.JournalEntry
		if err := decodeJSON(resp, &e); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n%s\n", colorize(colorBold, e.Title), colorize(colorDim, e.CreatedAt.Local().Format(time.RFC1123)))
		writeJournalDetails(out, e)
		fmt.Fprintf(out, "\n%s\n", e.Content)
		if e.Insights != "" {
			fmt.Fprintf(out, "\n%s\n%s\n", colorize(colorBold, "Reflection"), e.Insights)
		}
		return nil
	},
}

var journalEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a journal entry",
	Long: `Edit a journal entry. Only the flags given are changed. Changing the
content clears the reflection and queues a new one.

Examples:
  reframe journal edit 3f2a91c0 --mood content
  reframe journal edit 3f2a91c0 --tag work --tag meetings --public
  reframe journal edit 3f2a91c0 --file ./tonight.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := journalEditBody(cmd)
		if err != nil {
			return err
		}
		if len(body) == 0 {
			return fmt.Errorf("nothing to change; pass at least one flag")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/v1/journal/"+url.PathEscape(args[0]), body)
		if err != nil {
			return err
		}
		var e storage.JournalEntry
		if err := decodeJSON(resp, &e); err != nil {
			return err
		}
		printSuccess("Updated %q (%s)", e.Title, shortID(e.ID))
		return nil
	},
}

func addJournalEditFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "new title (empty: first line of the content)")
	cmd.Flags().String("content", "", "new content")
	cmd.Flags().String("file", "", "read the new content from a file")
	cmd.Flags().String("mood", "", "new mood")
	cmd.Flags().String("category", "", "new category")
	cmd.Flags().StringSlice("tag", nil, "replace the tags (repeatable)")
	cmd.Flags().Bool("clear-tags", false, "remove all tags")
	cmd.Flags().Bool("public", false, "mark the entry as not private")
	cmd.Flags().Bool("private", false, "mark the entry as private")
}

// journalEditBody builds the update request from the flags that were set.
func journalEditBody(cmd *cobra.Command) (map[string]any, error) {
	flags := cmd.Flags()
	body := make(map[string]any)
	for _, name := range []string{"title", "content", "mood", "category"} {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			body[name] = v
		}
	}
	if flags.Changed("file") {
		if flags.Changed("content") {
			return nil, fmt.Errorf("--content and --file are mutually exclusive")
		}
		file, _ := flags.GetString("file")
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading file: %w", err)
		}
		body["content"] = string(data)
	}
	switch {
	case flags.Changed("clear-tags"):
		body["tags"] = []string{}
	case flags.Changed("tag"):
		tags, _ := flags.GetStringSlice("tag")
		body["tags"] = tags
	}
	public, _ := flags.GetBool("public")
	private, _ := flags.GetBool("private")
	switch {
	case public && private:
		return nil, fmt.Errorf("--public and --private are mutually exclusive")
	case public:
		body["is_private"] = false
	case private:
		body["is_private"] = true
	}
	return body, nil
}

func moodEmoji(name string) string {
	for _, m := range journal.Moods() {
		if m.Name == name {
			return m.Emoji
		}
	}
	return " "
}

func writeJournalDetails(w io.Writer, e storage.JournalEntry) {
	details := []string{e.Type}
	if e.Mood != "" {
		details = append(details, moodEmoji(e.Mood)+" "+e.Mood)
	}
	if e.Category != "" {
		details = append(details, e.Category)
	}
	if len(e.Tags) > 0 {
		details = append(details, "#"+strings.Join(e.Tags, " #"))
	}
	if !e.Private {
		details = append(details, "shared")
	}
	fmt.Fprintln(w, colorize(colorDim, strings.Join(details, " · ")))
}

var journalReflectCmd = &cobra.Command{
	Use:   "reflect <id>",
	Short: "Generate the reflection for an entry now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/journal/"+url.PathEscape(args[0])+"/insights", nil)
		if err != nil {
			return err
		}
		var body struct {
			Insights string `json:"insights"`
			Error    string `json:"error"`
		}
		if err := decodeJSON(resp, &body); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), body.Insights)
		if body.Error != "" {
			printWarning("%s", body.Error)
		}
		return nil
	},
}

var journalDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/v1/journal/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Deleted %s", args[0])
		return nil
	},
}

func init() {
	journalAddCmd.Flags().String("title", "", "entry title (default: first line)")
	journalAddCmd.Flags().String("file", "", "read the entry from a file")
	journalAddCmd.Flags().String("type", "journal", "entry type: journal, gratitude or strength")
	journalAddCmd.Flags().String("mood", "", "mood: happy, content, neutral, sad or very-sad")
	journalAddCmd.Flags().String("category", "", "category, for gratitude and strength entries")
	journalAddCmd.Flags().StringSlice("tag", nil, "tag the entry (repeatable)")
	journalAddCmd.Flags().Bool("public", false, "do not mark the entry as private")
	journalListCmd.Flags().Int("limit", 20, "maximum number of entries to list")
	journalListCmd.Flags().String("type", "", "only list entries of this type")
	addJournalEditFlags(journalEditCmd)

	journalCmd.AddCommand(journalAddCmd)
	journalCmd.AddCommand(journalImportCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalEditCmd)
	journalCmd.AddCommand(journalReflectCmd)
	journalCmd.AddCommand(journalDeleteCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Restore the default for a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

var configSetSecretCmd = &cobra.Command{
	Use:   "set-secret <key>",
	Short: "Store an API key in the platform secret store (value read from stdin)",
	Long: fmt.Sprintf(`Store an API key in the platform secret store. The value is read from
stdin so it does not end up in shell history.

Keys: %s`, strings.Join(config.SecretKeys(), ", ")),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		value := strings.TrimSpace(string(data))
		if value == "" {
			return fmt.Errorf("empty value")
		}
		if err := config.SetSecret(config.NewKeychain(), args[0], value); err != nil {
			return err
		}
		printSuccess("Stored %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configSetSecretCmd)
}

