package lifecycle

import (
	"errors"
	"testing"

	"github.com/jmercer/shelfmark/internal/apperr"
	"github.com/jmercer/shelfmark/internal/models"
)

func datePtr(s string) *models.Date {
	d := models.MustParseDate(s)
	return &d
}

func book(status models.Status, started, completed *models.Date, ratingTag string) *models.Book {
	return &models.Book{
		Title:         "The Dispossessed",
		Author:        "Ursula K. Le Guin",
		Status:        status,
		StartedDate:   started,
		CompletedDate: completed,
		RatingTag:     ratingTag,
	}
}

func TestValidateDates_BothPresentOrdered(t *testing.T) {
	err := ValidateDates(datePtr("2024-01-10"), nil,
		models.KeepDate(), models.SetDate(models.MustParseDate("2024-02-01")))
	if err != nil {
		t.Fatalf("ordered dates should pass: %v", err)
	}
}

func TestValidateDates_CompletedBeforeStarted(t *testing.T) {
	err := ValidateDates(datePtr("2024-01-10"), nil,
		models.KeepDate(), models.SetDate(models.MustParseDate("2024-01-05")))
	if !errors.Is(err, apperr.ErrInvalidDateRange) {
		t.Fatalf("err = %v, want ErrInvalidDateRange", err)
	}
}

func TestValidateDates_SameDayAllowed(t *testing.T) {
	d := models.MustParseDate("2024-03-03")
	if err := ValidateDates(&d, nil, models.KeepDate(), models.SetDate(d)); err != nil {
		t.Fatalf("same-day completion should pass: %v", err)
	}
}

func TestValidateDates_EitherSideAbsentSkipsCheck(t *testing.T) {
	// No started date stored or supplied: any completed date is fine.
	if err := ValidateDates(nil, nil, models.KeepDate(), models.SetDate(models.MustParseDate("1999-01-01"))); err != nil {
		t.Fatalf("absent started should skip validation: %v", err)
	}
	// Clearing the completed date always passes, even against a later start.
	if err := ValidateDates(datePtr("2024-06-01"), datePtr("2024-06-10"), models.KeepDate(), models.ClearDate()); err != nil {
		t.Fatalf("clearing completed should pass: %v", err)
	}
}

func TestValidateDates_ClearDistinctFromKeep(t *testing.T) {
	started := datePtr("2024-05-01")
	completed := datePtr("2024-04-01") // stored state already violates ordering

	// Keeping both existing values trips on the stored violation.
	if err := ValidateDates(started, completed, models.KeepDate(), models.KeepDate()); !errors.Is(err, apperr.ErrInvalidDateRange) {
		t.Errorf("keep/keep err = %v, want ErrInvalidDateRange", err)
	}
	// Explicitly clearing the started date removes one side of the check.
	if err := ValidateDates(started, completed, models.ClearDate(), models.KeepDate()); err != nil {
		t.Errorf("clear/keep err = %v, want nil", err)
	}
}

func TestValidateDates_Idempotent(t *testing.T) {
	started := datePtr("2024-01-10")
	patch := models.SetDate(models.MustParseDate("2024-01-05"))
	first := ValidateDates(started, nil, models.KeepDate(), patch)
	second := ValidateDates(started, nil, models.KeepDate(), patch)
	if !errors.Is(first, apperr.ErrInvalidDateRange) || !errors.Is(second, apperr.ErrInvalidDateRange) {
		t.Fatalf("results differ: first=%v second=%v", first, second)
	}
}

func TestTransitionTable(t *testing.T) {
	all := []models.Status{models.StatusWishlist, models.StatusReading, models.StatusCompleted, models.StatusDropped}
	allowed := map[[2]models.Status]bool{
		{models.StatusWishlist, models.StatusReading}:    true,
		{models.StatusReading, models.StatusWishlist}:    true,
		{models.StatusReading, models.StatusCompleted}:   true,
		{models.StatusReading, models.StatusDropped}:     true,
		{models.StatusCompleted, models.StatusWishlist}:  true,
		{models.StatusCompleted, models.StatusDropped}:   true,
		{models.StatusDropped, models.StatusWishlist}:    true,
		{models.StatusDropped, models.StatusReading}:     true,
	}

	for _, from := range all {
		for _, to := range all {
			got := CanTransition(from, to)
			want := allowed[[2]models.Status{from, to}]
			if got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestPlan_StartReadingWithoutDatePreservesExisting(t *testing.T) {
	b := book(models.StatusWishlist, nil, nil, "")
	patch, err := Plan(b, models.StatusReading, Payload{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if patch.Status == nil || *patch.Status != models.StatusReading {
		t.Errorf("patch status = %v, want reading", patch.Status)
	}
	if patch.Started.Mode != models.DateCoalesce || patch.Started.Value != nil {
		t.Errorf("started write = %+v, want coalesce with nil value", patch.Started)
	}
}

func TestPlan_StartReadingWithDate(t *testing.T) {
	b := book(models.StatusDropped, datePtr("2024-01-01"), nil, "")
	patch, err := Plan(b, models.StatusReading, Payload{Started: models.SetDate(models.MustParseDate("2024-02-01"))})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if patch.Started.Mode != models.DateCoalesce || patch.Started.Value == nil {
		t.Fatalf("started write = %+v, want coalesce with value", patch.Started)
	}
	if patch.Started.Value.String() != "2024-02-01" {
		t.Errorf("started value = %s", patch.Started.Value)
	}
}

func TestPlan_StartReadingValidatesAgainstCompleted(t *testing.T) {
	b := book(models.StatusDropped, nil, datePtr("2024-01-15"), "")
	_, err := Plan(b, models.StatusReading, Payload{Started: models.SetDate(models.MustParseDate("2024-02-01"))})
	if !errors.Is(err, apperr.ErrInvalidDateRange) {
		t.Fatalf("err = %v, want ErrInvalidDateRange", err)
	}
}

func TestPlan_MarkCompletedBackdatedDate(t *testing.T) {
	// Scenario: started 2024-01-10, completing with 2024-01-05 must fail.
	b := book(models.StatusReading, datePtr("2024-01-10"), nil, "")
	_, err := Plan(b, models.StatusCompleted, Payload{
		RatingTag: "loved-it",
		Completed: models.SetDate(models.MustParseDate("2024-01-05")),
	})
	if !errors.Is(err, apperr.ErrInvalidDateRange) {
		t.Fatalf("err = %v, want ErrInvalidDateRange", err)
	}
}

func TestPlan_MarkCompletedRequiresRating(t *testing.T) {
	b := book(models.StatusReading, datePtr("2024-02-01"), nil, "")
	_, err := Plan(b, models.StatusCompleted, Payload{RatingTag: ""})
	if !errors.Is(err, apperr.ErrMissingRating) {
		t.Fatalf("err = %v, want ErrMissingRating", err)
	}
}

func TestPlan_MarkCompletedSetsTagAndOverwritesDate(t *testing.T) {
	b := book(models.StatusReading, datePtr("2024-02-01"), nil, "")
	patch, err := Plan(b, models.StatusCompleted, Payload{
		RatingTag: "solid",
		Completed: models.SetDate(models.MustParseDate("2024-03-01")),
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if patch.RatingTag == nil || *patch.RatingTag != "solid" {
		t.Errorf("rating tag = %v", patch.RatingTag)
	}
	if patch.Completed.Mode != models.DateSet {
		t.Errorf("completed write mode = %v, want DateSet", patch.Completed.Mode)
	}
}

func TestPlan_MarkCompletedWithoutDateClearsNothingStored(t *testing.T) {
	// Absent completed date leaves the column alone.
	b := book(models.StatusReading, nil, nil, "")
	patch, err := Plan(b, models.StatusCompleted, Payload{RatingTag: "fine"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if patch.Completed.Mode != models.DateKeep {
		t.Errorf("completed write mode = %v, want DateKeep", patch.Completed.Mode)
	}
}

func TestPlan_DropRatedBookBlocked(t *testing.T) {
	// Scenario: completed with rating tag, dropping must fail.
	b := book(models.StatusCompleted, nil, nil, "loved-it")
	_, err := Plan(b, models.StatusDropped, Payload{})
	if !errors.Is(err, apperr.ErrIllegalTransition) {
		t.Fatalf("err = %v, want ErrIllegalTransition", err)
	}
}

func TestPlan_DropRatedBookBlockedEvenFromReading(t *testing.T) {
	// A once-completed book re-read and dropped still carries the tag.
	b := book(models.StatusReading, nil, nil, "loved-it")
	_, err := Plan(b, models.StatusDropped, Payload{})
	if !errors.Is(err, apperr.ErrIllegalTransition) {
		t.Fatalf("err = %v, want ErrIllegalTransition", err)
	}
}

func TestPlan_DropUnratedBook(t *testing.T) {
	b := book(models.StatusReading, datePtr("2024-01-01"), nil, "")
	patch, err := Plan(b, models.StatusDropped, Payload{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if patch.Started.Mode != models.DateKeep || patch.Completed.Mode != models.DateKeep {
		t.Error("drop must not touch dates")
	}
}

func TestPlan_MoveToWishlistSkipsDateValidation(t *testing.T) {
	// Stored dates already out of order; the wishlist path is lenient.
	b := book(models.StatusCompleted, datePtr("2024-05-01"), datePtr("2024-04-01"), "meh")
	patch, err := Plan(b, models.StatusWishlist, Payload{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if patch.RatingTag != nil {
		t.Error("move to wishlist must not clear the rating tag")
	}
	if patch.Started.Mode != models.DateKeep || patch.Completed.Mode != models.DateKeep {
		t.Error("move to wishlist must not touch dates")
	}
}

func TestPlan_SelfTransitionRejected(t *testing.T) {
	for _, st := range []models.Status{models.StatusWishlist, models.StatusReading, models.StatusCompleted, models.StatusDropped} {
		b := book(st, nil, nil, "")
		if _, err := Plan(b, st, Payload{}); !errors.Is(err, apperr.ErrIllegalTransition) {
			t.Errorf("%s -> %s err = %v, want ErrIllegalTransition", st, st, err)
		}
	}
}

func TestPlan_UnknownTargetRejected(t *testing.T) {
	b := book(models.StatusReading, nil, nil, "")
	if _, err := Plan(b, models.Status("archived"), Payload{}); !errors.Is(err, apperr.ErrIllegalTransition) {
		t.Fatalf("err = %v, want ErrIllegalTransition", err)
	}
}

func TestPlanStartedEdit_Validates(t *testing.T) {
	b := book(models.StatusCompleted, datePtr("2024-01-01"), datePtr("2024-01-20"), "fine")
	if _, err := PlanStartedEdit(b, models.SetDate(models.MustParseDate("2024-02-01"))); !errors.Is(err, apperr.ErrInvalidDateRange) {
		t.Fatalf("err = %v, want ErrInvalidDateRange", err)
	}
	patch, err := PlanStartedEdit(b, models.SetDate(models.MustParseDate("2024-01-05")))
	if err != nil {
		t.Fatalf("valid edit: %v", err)
	}
	if patch.Status != nil {
		t.Error("date edit must not change status")
	}
	if patch.Started.Mode != models.DateSet {
		t.Errorf("started write mode = %v, want DateSet", patch.Started.Mode)
	}
}

func TestPlanCompletedEdit_ClearAllowedInAnyStatus(t *testing.T) {
	b := book(models.StatusDropped, datePtr("2024-01-01"), datePtr("2024-01-20"), "")
	patch, err := PlanCompletedEdit(b, models.ClearDate())
	if err != nil {
		t.Fatalf("clear edit: %v", err)
	}
	if patch.Completed.Mode != models.DateSet || patch.Completed.Value != nil {
		t.Errorf("completed write = %+v, want set-to-null", patch.Completed)
	}
}
