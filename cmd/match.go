package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/unifit/internal/ai"
	"github.com/spigell/unifit/internal/export"
	"github.com/spigell/unifit/internal/logger"
	"github.com/spigell/unifit/internal/matcher"
	"github.com/spigell/unifit/internal/profile"
	"github.com/spigell/unifit/internal/scoring"
	"github.com/spigell/unifit/internal/selections"
)

const (
	PromptShowMatches   = "Show matches"
	PromptExplain       = "Explain a match"
	PromptShortlist     = "Add or remove from shortlist"
	PromptShowShortlist = "Show shortlist"
	PromptCompare       = "Compare shortlisted"
	PromptExport        = "Export matches to CSV"
	PromptSummary       = "AI summary"
	PromptFilters       = "Show filters"
	PromptQuit          = "Quit"
	PromptBack          = "back"
)

var errExit = errors.New("exit requested")

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Find and rank the institutions that fit a student profile",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	f := matchCmd.Flags()
	f.StringP("profile-file", "p", "", "YAML profile document")
	f.BoolP("interactive", "i", false, "enter the profile with prompts")
	f.BoolP("no-prompt", "y", false, "print the ranked list and exit")
	f.Bool("export", false, "write the ranked list to a CSV file in export.dir")
	f.String("selections-file", "", "YAML file the shortlist is read from and saved to")
	f.Int("limit", 0, "number of ranked matches to return (overrides search.limit)")
	f.Bool("seed-shortlist", false, "add every ranked match to the shortlist")
	f.StringSlice("skip-filter", nil, "filter to disable for this search (repeatable)")
	addProfileFlags(matchCmd)

	viper.BindPFlag("search.limit", f.Lookup("limit"))
}

func addProfileFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("test-type", "", "SAT, ACT or None")
	f.Int("sat", 0, "SAT total score (400-1600)")
	f.Int("act", 0, "ACT composite score (1-36)")
	f.Float64("gpa", 0, "GPA on the chosen scale")
	f.String("gpa-scale", "", "4.0, 5.0 or 100")
	f.StringSlice("state", nil, "preferred state, code or name (repeatable)")
	f.StringSlice("type", nil, "preferred institution type (repeatable)")
	f.String("major", "", "intended major or Any")
	f.String("income", "", "family income bracket, e.g. $48,001-$75,000")
	f.Float64("max-net-price", 0, "maximum acceptable net price")
	f.String("test-policy", "", "Any, Test Optional/Flexible or Test Required")
	f.String("selectivity", "", "Safety Schools, Target Schools, Reach Schools or All")
}

// session is the state of one interactive match run.
type session struct {
	engine     *matcher.Engine
	advisor    ai.Advisor
	config     *Config
	logger     *zap.Logger
	out        io.Writer
	profile    *profile.Profile
	result     *matcher.Result
	selections selections.UserSelections
	selFile    string
}

func match(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(logger.Options{
		JSON:   viper.GetBool("json"),
		Debug:  viper.GetBool("debug"),
		Output: "stderr",
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	validation := config.Validate()
	for _, w := range validation.Warnings {
		logger.Warn("config", zap.String("warning", w))
	}
	if err := validation.Err(); err != nil {
		logger.Fatal("validating config", zap.Strings("errors", validation.Errors))
	}

	logger.Info("starting unifit", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	snap, err := matcher.LoadSnapshot(ctx, config.Sources())
	if err != nil {
		logger.Fatal("loading catalog", zap.Error(err))
	}
	logger.Info("catalog loaded",
		zap.Int("institutions", snap.Catalog.Len()),
		zap.Int("dropped_rows", snap.CatalogStats.Dropped),
		zap.Int("offerings", snap.Programs.Len()),
	)

	engine := matcher.New(matcher.NewStore(snap), config.engineOptions(logger)...)

	input, err := buildInput(cmd, config.Profile)
	if err != nil {
		logger.Fatal("reading profile", zap.Error(err))
	}

	if flagBool(cmd, "interactive") {
		input, err = promptProfile(input, snap.Programs.Programs())
		if err != nil {
			logger.Fatal("entering profile", zap.Error(err))
		}
	}

	p, err := profile.Normalize(input)
	if err != nil {
		var verrs profile.ValidationErrors
		if errors.As(err, &verrs) {
			for _, e := range verrs {
				logger.Error("invalid profile field", zap.String("field", e.Field), zap.String("value", e.Value), zap.String("reason", e.Reason))
			}
		}
		logger.Fatal("normalizing profile", zap.Error(err))
	}

	s := &session{
		engine:  engine,
		config:  config,
		logger:  logger,
		out:     os.Stdout,
		profile: p,
		selFile: flagString(cmd, "selections-file"),
	}

	if s.selections, err = loadSelections(s.selFile); err != nil {
		logger.Fatal("loading selections", zap.Error(err))
	}

	s.advisor, err = newAdvisor(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("skipping AI summaries", zap.Error(err))
	}

	skip, _ := cmd.Flags().GetStringSlice("skip-filter")
	res, err := engine.Match(ctx, matcher.Request{
		Profile:       p,
		Selections:    s.selections,
		SeedShortlist: flagBool(cmd, "seed-shortlist"),
		SkipFilters:   skip,
	})
	if err != nil {
		logger.Fatal("running search", zap.Error(err))
	}
	s.result = res
	s.selections = res.Selections

	if res.Empty() {
		logger.Info("exiting", zap.String("reason", "no institutions match the profile"), zap.Any("filters", res.Steps))
		return
	}

	s.printMatches()

	if flagBool(cmd, "export") {
		if err := s.export(); err != nil {
			logger.Fatal("exporting matches", zap.Error(err))
		}
	}

	if flagBool(cmd, "no-prompt") {
		s.saveSelections()
		return
	}

	for {
		_, action, err := s.actionPrompt().Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := s.handleAction(ctx, action); err != nil {
			if errors.Is(err, errExit) {
				s.saveSelections()
				return
			}
			logger.Error("action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

func (s *session) actionPrompt() *promptui.Select {
	items := []string{PromptShowMatches, PromptExplain, PromptShortlist, PromptShowShortlist, PromptCompare, PromptExport, PromptFilters}
	if s.advisor != nil {
		items = append(items, PromptSummary)
	}
	return &promptui.Select{
		Label: fmt.Sprintf("%d matches. Next?", len(s.result.Candidates)),
		Items: append(items, PromptQuit),
		Size:  len(items) + 1,
	}
}

func (s *session) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptShowMatches:
		s.printMatches()
		return nil
	case PromptExplain:
		c, err := s.pickCandidate("Explain which match?", s.result.Candidates)
		if err != nil || c == nil {
			return err
		}
		s.printExplanation(*c)
		return nil
	case PromptShortlist:
		c, err := s.pickCandidate("Toggle which match?", s.result.Candidates)
		if err != nil || c == nil {
			return err
		}
		s.selections = s.selections.Toggle(c.Institution.ID)
		s.logger.Info("shortlist updated",
			zap.Int("institution_id", c.Institution.ID),
			zap.Bool("shortlisted", s.selections.IsShortlisted(c.Institution.ID)),
			zap.Int("count", len(s.selections.Shortlisted)),
		)
		return nil
	case PromptShowShortlist:
		s.printCandidates(s.shortlisted())
		return nil
	case PromptCompare:
		s.selections = s.selections.CompareAll()
		s.printComparison(s.compared())
		return nil
	case PromptExport:
		return s.export()
	case PromptFilters:
		pretty, _ := json.MarshalIndent(s.result.Steps, "", "  ")
		s.logger.Info(string(pretty), zap.Int("considered", s.result.Considered))
		return nil
	case PromptSummary:
		return s.summarize(ctx)
	case PromptQuit:
		s.logger.Info("exiting", zap.String("reason", "got quit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (s *session) pickCandidate(label string, candidates []scoring.Candidate) (*scoring.Candidate, error) {
	items := make([]string, 0, len(candidates)+1)
	for i, c := range candidates {
		mark := " "
		if s.selections.IsShortlisted(c.Institution.ID) {
			mark = "*"
		}
		items = append(items, fmt.Sprintf("%s %2d. %s (%d, %s)", mark, i+1, c.Institution.Name, c.MatchScore, c.Category))
	}

	sel := promptui.Select{
		Label: label,
		Items: append(items, PromptBack),
		Size:  10,
		Searcher: func(input string, index int) bool {
			if index >= len(items) {
				return false
			}
			return strings.Contains(strings.ToLower(items[index]), strings.ToLower(input))
		},
	}

	idx, _, err := sel.Run()
	if err != nil {
		return nil, err
	}
	if idx >= len(candidates) {
		return nil, nil
	}
	return &candidates[idx], nil
}

func (s *session) shortlisted() []scoring.Candidate {
	return s.pick(s.selections.IsShortlisted)
}

func (s *session) compared() []scoring.Candidate {
	return s.pick(s.selections.IsCompared)
}

func (s *session) pick(keep func(int) bool) []scoring.Candidate {
	var out []scoring.Candidate
	for _, c := range s.result.Candidates {
		if keep(c.Institution.ID) {
			out = append(out, c)
		}
	}
	return out
}

func (s *session) printMatches() {
	s.printCandidates(s.result.Candidates)
}

func (s *session) printCandidates(candidates []scoring.Candidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(s.out, "nothing to show")
		return
	}

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSCORE\tCATEGORY\tINSTITUTION\tSTATE\tTYPE\tNET PRICE\t")
	for i, c := range candidates {
		price := "n/a"
		if v, ok := c.Institution.SelectedNetPrice(s.profile.IncomeBracket); ok {
			price = fmt.Sprintf("$%.0f", v)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t\n",
			i+1, c.MatchScore, c.Category, c.Institution.Name, c.Institution.StateCode, c.Institution.Control, price)
	}
	w.Flush()
}

func (s *session) printExplanation(c scoring.Candidate) {
	fmt.Fprintf(s.out, "%s: %d (%s)\n", c.Institution.Name, c.MatchScore, c.Category)
	fmt.Fprintf(s.out, "  academic %.0f, selectivity %.0f, preference %.1f\n",
		c.SubScores.Academic, c.SubScores.Selectivity, c.Preference)
	for _, point := range scoring.Explain(c, s.profile) {
		fmt.Fprintf(s.out, "  - %s\n", point)
	}
}

func (s *session) printComparison(candidates []scoring.Candidate) {
	if len(candidates) == 0 {
		fmt.Fprintln(s.out, "shortlist is empty")
		return
	}

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "\t")
	for _, c := range candidates {
		fmt.Fprintf(w, "%s\t", c.Institution.Name)
	}
	fmt.Fprintln(w)

	row := func(label string, value func(scoring.Candidate) string) {
		fmt.Fprintf(w, "%s\t", label)
		for _, c := range candidates {
			fmt.Fprintf(w, "%s\t", value(c))
		}
		fmt.Fprintln(w)
	}
	row("Match score", func(c scoring.Candidate) string { return fmt.Sprint(c.MatchScore) })
	row("Academic", func(c scoring.Candidate) string { return fmt.Sprintf("%.0f", c.SubScores.Academic) })
	row("Selectivity", func(c scoring.Candidate) string { return fmt.Sprintf("%.0f", c.SubScores.Selectivity) })
	row("Location", func(c scoring.Candidate) string { return fmt.Sprintf("%.0f", c.SubScores.Location) })
	row("Major", func(c scoring.Candidate) string { return fmt.Sprintf("%.0f", c.SubScores.Major) })
	row("Financial", func(c scoring.Candidate) string { return fmt.Sprintf("%.0f", c.SubScores.Financial) })
	row("Test policy", func(c scoring.Candidate) string { return fmt.Sprintf("%.0f", c.SubScores.TestPolicy) })
	w.Flush()
}

func (s *session) export() error {
	path, err := export.WriteFile(s.config.Export.Dir, time.Now(), s.result.Candidates, s.profile.IncomeBracket)
	if err != nil {
		return fmt.Errorf("export matches: %w", err)
	}
	s.logger.Info("matches exported", zap.String("filename", path), zap.Int("count", len(s.result.Candidates)))
	return nil
}

func (s *session) summarize(ctx context.Context) error {
	candidates := s.shortlisted()
	if len(candidates) == 0 {
		candidates = s.result.Candidates
	}

	summary, err := s.advisor.Summarize(ctx, s.profile, candidates)
	if err != nil {
		return fmt.Errorf("ai summary: %w", err)
	}

	fmt.Fprintln(s.out, summary.Text)
	for _, h := range summary.Highlights {
		name := fmt.Sprint(h.InstitutionID)
		if inst, ok := s.engine.Snapshot().Catalog.Get(h.InstitutionID); ok {
			name = inst.Name
		}
		fmt.Fprintf(s.out, "  * %s: %s\n", name, h.Note)
	}
	return nil
}

func loadSelections(path string) (selections.UserSelections, error) {
	var sel selections.UserSelections
	if path == "" {
		return sel, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return sel, nil
	}
	if err != nil {
		return sel, fmt.Errorf("read selections file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sel); err != nil {
		return sel, fmt.Errorf("parse selections file %q: %w", path, err)
	}
	return sel, nil
}

func (s *session) saveSelections() {
	if s.selFile == "" {
		return
	}
	data, err := yaml.Marshal(s.selections)
	if err != nil {
		s.logger.Error("encoding selections", zap.Error(err))
		return
	}
	if err := os.WriteFile(s.selFile, data, 0o600); err != nil {
		s.logger.Error("saving selections", zap.String("filename", s.selFile), zap.Error(err))
		return
	}
	s.logger.Info("selections saved", zap.String("filename", s.selFile), zap.Int("shortlisted", len(s.selections.Shortlisted)))
}

func flagBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return strings.TrimSpace(v)
}
