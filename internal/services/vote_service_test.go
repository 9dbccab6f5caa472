package services

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pollwise/pollwise-be/internal/models"
	"github.com/pollwise/pollwise-be/internal/testutil"
)

func TestCastVote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	polls := NewPollService(db)
	votes := NewVoteService(db, polls)
	creator := testutil.CreateTestUser(t, db, "creator", "creator@example.com", models.RoleUser)
	voter := testutil.CreateTestUser(t, db, "voter", "voter@example.com", models.RoleUser)

	pollID := testutil.CreateTestPoll(t, db, creator.ID, models.StatusActive, "Go", "Rust")

	vote, poll, err := votes.CastVote(voter.ID, pollID, "Go")
	if err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
	if vote.SelectedOption != "Go" || poll.ID != pollID {
		t.Errorf("vote = %+v, poll = %+v", vote, poll)
	}

	got, err := polls.GetPoll(pollID)
	if err != nil {
		t.Fatalf("GetPoll() error = %v", err)
	}
	if got.TotalVotes != 1 {
		t.Errorf("totalVotes = %d, want 1", got.TotalVotes)
	}
	if got.Options[0].Votes != 1 || got.Options[1].Votes != 0 {
		t.Errorf("option tallies = %+v", got.Options)
	}
	assertTallyInvariant(t, got)
}

func TestCastVoteAlreadyVoted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	polls := NewPollService(db)
	votes := NewVoteService(db, polls)
	creator := testutil.CreateTestUser(t, db, "creator", "creator@example.com", models.RoleUser)
	voter := testutil.CreateTestUser(t, db, "voter", "voter@example.com", models.RoleUser)

	pollID := testutil.CreateTestPoll(t, db, creator.ID, models.StatusActive, "Go", "Rust")

	if _, _, err := votes.CastVote(voter.ID, pollID, "Go"); err != nil {
		t.Fatalf("first CastVote() error = %v", err)
	}

	// Changing the option doesn't help: one vote per user per poll.
	_, _, err := votes.CastVote(voter.ID, pollID, "Rust")
	if !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("second CastVote() error = %v, want ErrAlreadyVoted", err)
	}

	got, _ := polls.GetPoll(pollID)
	if got.TotalVotes != 1 {
		t.Errorf("totalVotes after rejected vote = %d, want 1", got.TotalVotes)
	}
	assertTallyInvariant(t, got)
}

func TestCastVoteRejections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	polls := NewPollService(db)
	votes := NewVoteService(db, polls)
	creator := testutil.CreateTestUser(t, db, "creator", "creator@example.com", models.RoleUser)
	voter := testutil.CreateTestUser(t, db, "voter", "voter@example.com", models.RoleUser)

	activePoll := testutil.CreateTestPoll(t, db, creator.ID, models.StatusActive, "Go", "Rust")
	closedPoll := testutil.CreateTestPoll(t, db, creator.ID, models.StatusClosed, "Go", "Rust")
	expiredPoll := testutil.CreateTestPoll(t, db, creator.ID, models.StatusActive, "Go", "Rust")
	testutil.SetPollEndDate(t, db, expiredPoll, time.Now().Add(-time.Hour).UTC())

	tests := []struct {
		name    string
		pollID  string
		option  string
		wantErr error
	}{
		{"missing poll", "no-such-poll", "Go", ErrPollNotFound},
		{"closed poll", closedPoll, "Go", ErrPollClosed},
		{"expired while still active", expiredPoll, "Go", ErrPollExpired},
		{"unknown option", activePoll, "Zig", ErrInvalidOption},
		{"option text is case sensitive", activePoll, "go", ErrInvalidOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := votes.CastVote(voter.ID, tt.pollID, tt.option); !errors.Is(err, tt.wantErr) {
				t.Errorf("CastVote() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// None of the rejected casts may touch a tally.
	for _, pollID := range []string{activePoll, closedPoll, expiredPoll} {
		got, err := polls.GetPoll(pollID)
		if err != nil {
			t.Fatalf("GetPoll() error = %v", err)
		}
		if got.TotalVotes != 0 {
			t.Errorf("poll %s totalVotes = %d, want 0", pollID, got.TotalVotes)
		}
		assertTallyInvariant(t, got)
	}
}

// Concurrent casts by the same user on the same poll: exactly one may
// succeed, the rest observe AlreadyVoted, and the tallies count the winner
// once. The unique index is the guard here, not the pre-check.
func TestCastVoteConcurrentSameUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	polls := NewPollService(db)
	votes := NewVoteService(db, polls)
	creator := testutil.CreateTestUser(t, db, "creator", "creator@example.com", models.RoleUser)
	voter := testutil.CreateTestUser(t, db, "voter", "voter@example.com", models.RoleUser)

	pollID := testutil.CreateTestPoll(t, db, creator.ID, models.StatusActive, "Go", "Rust")

	const attempts = 10
	var successes, conflicts atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := votes.CastVote(voter.ID, pollID, "Go")
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrAlreadyVoted):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected CastVote() error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes.Load() != 1 {
		t.Errorf("successes = %d, want exactly 1", successes.Load())
	}
	if conflicts.Load() != attempts-1 {
		t.Errorf("conflicts = %d, want %d", conflicts.Load(), attempts-1)
	}

	var voteCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM votes WHERE user_id = ? AND poll_id = ?", voter.ID, pollID).Scan(&voteCount); err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if voteCount != 1 {
		t.Errorf("ledger rows = %d, want 1", voteCount)
	}

	got, _ := polls.GetPoll(pollID)
	if got.TotalVotes != 1 {
		t.Errorf("totalVotes = %d, want 1", got.TotalVotes)
	}
	assertTallyInvariant(t, got)
}

// Distinct users voting concurrently on one poll must all succeed and the
// tallies must equal the ledger.
func TestCastVoteConcurrentDistinctUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	polls := NewPollService(db)
	votes := NewVoteService(db, polls)
	creator := testutil.CreateTestUser(t, db, "creator", "creator@example.com", models.RoleUser)

	pollID := testutil.CreateTestPoll(t, db, creator.ID, models.StatusActive, "Go", "Rust")

	const voters = 8
	ids := make([]string, voters)
	for i := range ids {
		u := testutil.CreateTestUser(t, db, "voter"+string(rune('a'+i)), "voter"+string(rune('a'+i))+"@example.com", models.RoleUser)
		ids[i] = u.ID
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		option := "Go"
		if i%2 == 1 {
			option = "Rust"
		}
		go func(userID, option string) {
			defer wg.Done()
			if _, _, err := votes.CastVote(userID, pollID, option); err != nil {
				t.Errorf("CastVote(%s) error = %v", userID, err)
			}
		}(id, option)
	}
	wg.Wait()

	got, err := polls.GetPoll(pollID)
	if err != nil {
		t.Fatalf("GetPoll() error = %v", err)
	}
	if got.TotalVotes != voters {
		t.Errorf("totalVotes = %d, want %d", got.TotalVotes, voters)
	}
	if got.Options[0].Votes != voters/2 || got.Options[1].Votes != voters/2 {
		t.Errorf("option tallies = %+v, want an even split", got.Options)
	}
	assertTallyInvariant(t, got)
}

func TestGetResults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	polls := NewPollService(db)
	votes := NewVoteService(db, polls)
	creator := testutil.CreateTestUser(t, db, "creator", "creator@example.com", models.RoleUser)
	voterA := testutil.CreateTestUser(t, db, "va", "va@example.com", models.RoleUser)
	voterB := testutil.CreateTestUser(t, db, "vb", "vb@example.com", models.RoleUser)
	voterC := testutil.CreateTestUser(t, db, "vc", "vc@example.com", models.RoleUser)

	pollID := testutil.CreateTestPoll(t, db, creator.ID, models.StatusActive, "Go", "Rust")

	// No votes yet: every option reads 0.00.
	_, results, userVote, err := votes.GetResults(pollID, "")
	if err != nil {
		t.Fatalf("GetResults() error = %v", err)
	}
	if results[0].Percentage != "0.00" || results[1].Percentage != "0.00" {
		t.Errorf("empty poll percentages = %+v", results)
	}
	if userVote != nil {
		t.Errorf("anonymous userVote = %v, want nil", *userVote)
	}

	for _, c := range []struct {
		userID string
		option string
	}{
		{voterA.ID, "Go"},
		{voterB.ID, "Go"},
		{voterC.ID, "Rust"},
	} {
		if _, _, err := votes.CastVote(c.userID, pollID, c.option); err != nil {
			t.Fatalf("CastVote() error = %v", err)
		}
	}

	// Thirds round independently; the column does not sum to 100.00 and
	// that is accepted.
	poll, results, userVote, err := votes.GetResults(pollID, voterC.ID)
	if err != nil {
		t.Fatalf("GetResults() error = %v", err)
	}
	if poll.TotalVotes != 3 {
		t.Errorf("totalVotes = %d, want 3", poll.TotalVotes)
	}
	if results[0].Percentage != "66.67" || results[1].Percentage != "33.33" {
		t.Errorf("percentages = %q/%q, want 66.67/33.33", results[0].Percentage, results[1].Percentage)
	}
	if userVote == nil || *userVote != "Rust" {
		t.Errorf("userVote = %v, want Rust", userVote)
	}

	if _, _, _, err := votes.GetResults("missing", ""); !errors.Is(err, ErrPollNotFound) {
		t.Errorf("GetResults(missing) error = %v, want ErrPollNotFound", err)
	}
}

func TestGetUserVotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	polls := NewPollService(db)
	votes := NewVoteService(db, polls)
	creator := testutil.CreateTestUser(t, db, "creator", "creator@example.com", models.RoleUser)
	voter := testutil.CreateTestUser(t, db, "voter", "voter@example.com", models.RoleUser)

	first := testutil.CreateTestPoll(t, db, creator.ID, models.StatusActive, "Go", "Rust")
	second := testutil.CreateTestPoll(t, db, creator.ID, models.StatusActive, "Tea", "Coffee")

	if _, _, err := votes.CastVote(voter.ID, first, "Go"); err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
	// Spread the timestamps so the ordering assertion is meaningful.
	if _, err := db.Exec("UPDATE votes SET voted_at = ? WHERE poll_id = ?", time.Now().Add(-time.Hour).UTC(), first); err != nil {
		t.Fatalf("backdate vote: %v", err)
	}
	if _, _, err := votes.CastVote(voter.ID, second, "Tea"); err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}

	history, err := votes.GetUserVotes(voter.ID)
	if err != nil {
		t.Fatalf("GetUserVotes() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].PollID != second || history[1].PollID != first {
		t.Errorf("history not newest-first: %+v", history)
	}
	if history[0].PollTitle == nil || *history[0].PollTitle != "Test Poll" {
		t.Errorf("poll title not joined: %+v", history[0])
	}
	if history[0].PollDescription == nil || *history[0].PollDescription != "A test poll" {
		t.Errorf("poll description not joined: %+v", history[0])
	}

	// Votes survive poll deletion; the joined metadata goes nil.
	admin := testutil.CreateTestUser(t, db, "admin", "admin@example.com", models.RoleAdmin)
	if _, err := polls.DeletePoll(second, userClaims(admin)); err != nil {
		t.Fatalf("DeletePoll() error = %v", err)
	}

	history, err = votes.GetUserVotes(voter.ID)
	if err != nil {
		t.Fatalf("GetUserVotes() after delete error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length after delete = %d, want 2", len(history))
	}
	if history[0].PollTitle != nil {
		t.Errorf("deleted poll title = %v, want nil", *history[0].PollTitle)
	}
	if history[0].PollDescription != nil {
		t.Errorf("deleted poll description = %v, want nil", *history[0].PollDescription)
	}
	if history[0].SelectedOption != "Tea" {
		t.Errorf("selected option = %q, want Tea", history[0].SelectedOption)
	}
}

// assertTallyInvariant checks totalVotes == sum of option tallies.
func assertTallyInvariant(t *testing.T, poll models.Poll) {
	t.Helper()
	sum := 0
	for _, opt := range poll.Options {
		if opt.Votes < 0 {
			t.Errorf("negative vote count on %q", opt.Text)
		}
		sum += opt.Votes
	}
	if sum != poll.TotalVotes {
		t.Errorf("tally invariant broken: sum(options) = %d, totalVotes = %d", sum, poll.TotalVotes)
	}
}
