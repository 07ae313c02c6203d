package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Heuristic thresholds. These triggering conditions are load-bearing for
// score comparability; the wording of suggestions is not.
const (
	longSentenceWordLimit = 30
	passiveMarkerLimit    = 3
	vagueQualifierLimit   = 3
)

// sectionTarget defines the completeness expectations for one review section.
type sectionTarget struct {
	TargetLength int
	Keywords     []string
}

// sectionTargets maps review form sections to their targets.
var sectionTargets = map[string]sectionTarget{
	"summary":           {TargetLength: 300, Keywords: []string{"methodology", "contribution"}},
	"strengths":         {TargetLength: 200},
	"weaknesses":        {TargetLength: 200},
	"detailed_comments": {TargetLength: 500, Keywords: []string{"section"}},
}

var (
	passivePattern = regexp.MustCompile(`(?i)\b(?:is|are|was|were|been|being)\s+\w+(?:ed|en)\b`)

	vagueQualifiers = []string{
		"somewhat", "rather", "quite", "fairly", "relatively",
		"arguably", "perhaps", "possibly", "seems", "appears",
	}

	unprofessionalTerms = []string{
		"stupid", "nonsense", "lazy", "incompetent", "garbage",
		"worthless", "ridiculous", "pathetic",
	}
)

// SectionAnalysis is the outcome of analyzing one review section.
type SectionAnalysis struct {
	Section           string   `json:"section"`
	CompletenessScore float64  `json:"completeness_score"`
	Suggestions       []string `json:"suggestions"`
	Warnings          []string `json:"warnings"`
	Flags             []string `json:"flags"`
}

// BiasWarning is a severity-tagged finding from the external text classifier.
type BiasWarning struct {
	Severity string `json:"severity"` // low|medium|high
	Flag     string `json:"flag"`
	Detail   string `json:"detail"`
}

// BiasClassifier is the external text-classification collaborator. A nil
// classifier disables bias detection.
type BiasClassifier interface {
	Classify(text string) ([]BiasWarning, error)
}

// QualityService scores reviews and maintains their quality reports.
type QualityService struct {
	db         *gorm.DB
	dispatch   Dispatcher
	classifier BiasClassifier
}

// NewQualityService constructs a QualityService.
func NewQualityService(db *gorm.DB, dispatch Dispatcher, classifier BiasClassifier) *QualityService {
	if db == nil {
		db = config.DB
	}
	if dispatch == nil {
		dispatch = NewNotificationDispatcher(db)
	}
	return &QualityService{db: db, dispatch: dispatch, classifier: classifier}
}

// CompletenessScore implements the fixed scoring policy:
// ratio = len/target; under-length text scores ratio, text between the target
// and twice the target scores 1.0, and anything at or past twice the target
// drops to the 0.7 verbosity floor.
func CompletenessScore(textLength, targetLength int) float64 {
	if targetLength <= 0 {
		return 1.0
	}
	ratio := float64(textLength) / float64(targetLength)
	if ratio < 1 {
		return ratio
	}
	if ratio >= 2 {
		floor := 2 - ratio
		if floor < 0.7 {
			floor = 0.7
		}
		return floor
	}
	return 1.0
}

// Analyze scores a single section's text against its structural and tone
// heuristics.
func Analyze(text, section string) SectionAnalysis {
	result := SectionAnalysis{Section: section}
	target, known := sectionTargets[section]
	if !known {
		target = sectionTarget{TargetLength: 200}
	}

	trimmed := strings.TrimSpace(text)
	result.CompletenessScore = CompletenessScore(len(trimmed), target.TargetLength)

	lower := strings.ToLower(trimmed)

	if len(trimmed) < target.TargetLength {
		result.Suggestions = append(result.Suggestions,
			fmt.Sprintf("Expand the %s section; aim for at least %d characters.", section, target.TargetLength))
	}
	if len(trimmed) > 2*target.TargetLength {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("The %s section is more than twice its target length; consider trimming.", section))
		result.Flags = append(result.Flags, models.FlagExcessiveLength)
	}

	for _, keyword := range target.Keywords {
		if !strings.Contains(lower, keyword) {
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("Address the manuscript's %s explicitly.", keyword))
		}
	}

	if long := countLongSentences(trimmed); long > 0 {
		result.Suggestions = append(result.Suggestions,
			fmt.Sprintf("%d sentence(s) exceed %d words; split them for clarity.", long, longSentenceWordLimit))
	}

	if passives := len(passivePattern.FindAllString(trimmed, -1)); passives > passiveMarkerLimit {
		result.Suggestions = append(result.Suggestions,
			"Frequent passive voice; prefer active phrasing.")
	}

	if vague := countOccurrences(lower, vagueQualifiers); vague > vagueQualifierLimit {
		result.Warnings = append(result.Warnings,
			"Vague qualifiers weaken the assessment; be specific.")
		result.Flags = append(result.Flags, models.FlagVagueLanguage)
	}

	if countOccurrences(lower, unprofessionalTerms) > 0 {
		result.Warnings = append(result.Warnings,
			"Language may read as unprofessional; keep the tone factual.")
		result.Flags = append(result.Flags, models.FlagUnprofessionalTone)
	}

	return result
}

func countLongSentences(text string) int {
	count := 0
	for _, sentence := range regexp.MustCompile(`[.!?]+`).Split(text, -1) {
		if len(strings.Fields(sentence)) > longSentenceWordLimit {
			count++
		}
	}
	return count
}

func countOccurrences(lower string, terms []string) int {
	count := 0
	for _, term := range terms {
		count += strings.Count(lower, term)
	}
	return count
}

// AnalyzeReview recomputes the quality report for an unsubmitted review.
// Reports freeze on submission; editors can still add flags via FlagReview.
func (s *QualityService) AnalyzeReview(review *models.Review) (*models.QualityReport, error) {
	if review.IsSubmitted() {
		return nil, invalidTransitionError("quality report is frozen after review submission")
	}

	form := review.FormData.Data()
	sections := map[string]string{
		"summary":           form.Summary,
		"strengths":         form.Strengths,
		"weaknesses":        form.Weaknesses,
		"detailed_comments": form.DetailedComments,
	}

	var completenessTotal float64
	var flags []string
	toneIssues := 0
	clarityIssues := 0
	incomplete := false

	for name, text := range sections {
		analysis := Analyze(text, name)
		completenessTotal += analysis.CompletenessScore
		flags = append(flags, analysis.Flags...)
		if analysis.CompletenessScore < 0.5 {
			incomplete = true
		}
		for _, flag := range analysis.Flags {
			if flag == models.FlagUnprofessionalTone {
				toneIssues++
			}
			if flag == models.FlagVagueLanguage {
				clarityIssues++
			}
		}
	}
	if incomplete {
		flags = append(flags, models.FlagIncompleteSections)
	}

	if s.classifier != nil {
		warnings, err := s.classifier.Classify(form.Summary + "\n" + form.DetailedComments)
		if err != nil {
			// External collaborator failure is non-fatal; the structural
			// analysis still stands.
			logDependencyFailure("bias classification", err)
		}
		for _, w := range warnings {
			if w.Severity == "high" || w.Flag == models.FlagBiasSuspected ||
				w.Flag == models.FlagEthicalConcern || w.Flag == models.FlagUnprofessionalTone {
				flags = append(flags, w.Flag)
			}
		}
	}

	scores := models.QualityScores{
		Completeness: completenessTotal / float64(len(sections)),
		Tone:         scoreFromIssues(toneIssues),
		Clarity:      scoreFromIssues(clarityIssues),
	}

	report, err := s.upsertReport(review.ReviewID, &scores, flags)
	if err != nil {
		return nil, err
	}

	s.notifyUrgentFlags(review, report.Flags)
	return report, nil
}

func scoreFromIssues(issues int) float64 {
	score := 1.0 - 0.25*float64(issues)
	if score < 0 {
		score = 0
	}
	return score
}

// FlagReview adds flags to a review's report. Flagging is additive and
// idempotent: repeats merge into a deduplicated set and nothing is removed.
func (s *QualityService) FlagReview(actor Actor, reviewID int, flags ...string) (*models.QualityReport, error) {
	if err := requireEditorial(actor); err != nil {
		return nil, err
	}
	var review models.Review
	if err := s.db.Where("review_id = ?", reviewID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("review %d not found", reviewID)
		}
		return nil, err
	}
	report, err := s.upsertReport(reviewID, nil, flags)
	if err != nil {
		return nil, err
	}
	s.notifyUrgentFlags(&review, report.Flags)
	return report, nil
}

// Report returns the stored quality report for a review.
func (s *QualityService) Report(reviewID int) (*models.QualityReport, error) {
	var report models.QualityReport
	if err := s.db.Where("review_id = ?", reviewID).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("no quality report for review %d", reviewID)
		}
		return nil, err
	}
	return &report, nil
}

// upsertReport writes scores (when given) and merges flags into the report.
func (s *QualityService) upsertReport(reviewID int, scores *models.QualityScores, newFlags []string) (*models.QualityReport, error) {
	var report models.QualityReport
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("review_id = ?", reviewID).First(&report).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			report = models.QualityReport{
				ReviewID:  reviewID,
				Status:    models.QualityClean,
				CreatedAt: now,
			}
			if scores != nil {
				report.Scores = datatypes.NewJSONType(*scores)
			}
			report.Flags = mergeFlags(nil, newFlags)
			if len(report.Flags) > 0 {
				report.Status = models.QualityFlagged
			}
			return tx.Create(&report).Error
		}
		if err != nil {
			return err
		}

		report.Flags = mergeFlags(report.Flags, newFlags)
		if scores != nil {
			report.Scores = datatypes.NewJSONType(*scores)
		}
		if len(report.Flags) > 0 {
			report.Status = models.QualityFlagged
		}
		report.UpdatedAt = &now
		return tx.Save(&report).Error
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// mergeFlags unions existing and new flags, preserving first-seen order.
func mergeFlags(existing datatypes.JSONSlice[string], incoming []string) datatypes.JSONSlice[string] {
	seen := make(map[string]bool, len(existing)+len(incoming))
	merged := make(datatypes.JSONSlice[string], 0, len(existing)+len(incoming))
	for _, flag := range existing {
		if flag == "" || seen[flag] {
			continue
		}
		seen[flag] = true
		merged = append(merged, flag)
	}
	for _, flag := range incoming {
		if flag == "" || seen[flag] {
			continue
		}
		seen[flag] = true
		merged = append(merged, flag)
	}
	return merged
}

// notifyUrgentFlags alerts the handling editor when a report carries flags
// that demand attention. Best-effort; failures are logged by the dispatcher.
func (s *QualityService) notifyUrgentFlags(review *models.Review, flags []string) {
	urgent := false
	for _, flag := range flags {
		switch flag {
		case models.FlagBiasSuspected, models.FlagEthicalConcern, models.FlagUnprofessionalTone:
			urgent = true
		}
	}
	if !urgent {
		return
	}

	var manuscript models.Manuscript
	if err := s.db.Where("manuscript_id = ?", review.ManuscriptID).First(&manuscript).Error; err != nil {
		return
	}
	if manuscript.EditorID == nil {
		return
	}

	s.dispatch.Dispatch([]Intent{{
		Type:         IntentUrgentFlag,
		UserID:       *manuscript.EditorID,
		ManuscriptID: review.ManuscriptID,
		Title:        "Review flagged for attention",
		Message: fmt.Sprintf("A review of manuscript %s was flagged (%s). Please inspect it before relying on its recommendation.",
			manuscript.SubmissionNumber, strings.Join(flags, ", ")),
	}})
}
