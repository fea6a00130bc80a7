package services

import (
	"errors"
	"testing"

	"quiz-settlement-system/models"
)

func TestCreateSoloGameStartsImmediately(t *testing.T) {
	db := openTestDB(t)
	game, _ := newTestServices(db)
	user := createTestUser(t, db, 50000)
	level := createTestLevel(t, db, 12)

	g, questions, err := game.Create(models.ModeSolo, level.ID, 10000, user.ID, testSecret, 0)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if g.Status != models.GameStatusInProgress {
		t.Fatalf("solo game should start immediately, got %s", g.Status)
	}
	if len(questions) != models.SoloDuelQuestionCap {
		t.Fatalf("expected %d questions, got %d", models.SoloDuelQuestionCap, len(questions))
	}
	if len(g.QuestionIDList()) != models.SoloDuelQuestionCap {
		t.Fatalf("frozen question set has %d ids", len(g.QuestionIDList()))
	}
	if g.MatchCode != "" {
		t.Fatal("solo games should not carry a match code")
	}
	if got := userBalance(t, db, user.ID); got != 40000 {
		t.Fatalf("expected stake debited to 40000, got %d", got)
	}

	var txn models.WalletTransaction
	if err := db.First(&txn, "user_id = ?", user.ID).Error; err != nil {
		t.Fatalf("expected a stake transaction: %v", err)
	}
	if txn.Kind != models.TransactionKindStake || txn.AmountCents != -10000 {
		t.Fatalf("unexpected stake transaction: %+v", txn)
	}
}

func TestCreateRejectsInsufficientBalance(t *testing.T) {
	db := openTestDB(t)
	game, _ := newTestServices(db)
	user := createTestUser(t, db, 5000)
	level := createTestLevel(t, db, 12)

	_, _, err := game.Create(models.ModeSolo, level.ID, 10000, user.ID, testSecret, 0)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// The whole creation rolls back: no game, no participant, no debit.
	if got := userBalance(t, db, user.ID); got != 5000 {
		t.Fatalf("balance mutated on a rejected stake: %d", got)
	}
	var count int64
	db.Model(&models.Game{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no game rows, found %d", count)
	}
	db.Model(&models.Participant{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no participant rows, found %d", count)
	}
}

func TestCreateRejectsWrongSecret(t *testing.T) {
	db := openTestDB(t)
	game, _ := newTestServices(db)
	user := createTestUser(t, db, 50000)
	level := createTestLevel(t, db, 12)

	_, _, err := game.Create(models.ModeSolo, level.ID, 10000, user.ID, "9999", 0)
	if !errors.Is(err, ErrInvalidSecret) {
		t.Fatalf("expected ErrInvalidSecret, got %v", err)
	}
	if got := userBalance(t, db, user.ID); got != 50000 {
		t.Fatalf("balance mutated on a rejected secret: %d", got)
	}
}

func TestCreateRejectsSuspendedAccount(t *testing.T) {
	db := openTestDB(t)
	game, _ := newTestServices(db)
	user := createTestUser(t, db, 50000)
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_suspended", true).Error; err != nil {
		t.Fatalf("failed to suspend user: %v", err)
	}
	level := createTestLevel(t, db, 12)

	_, _, err := game.Create(models.ModeSolo, level.ID, 10000, user.ID, testSecret, 0)
	if !errors.Is(err, ErrAccountSuspended) {
		t.Fatalf("expected ErrAccountSuspended, got %v", err)
	}
}

func TestCreateRejectsThinLevel(t *testing.T) {
	db := openTestDB(t)
	game, _ := newTestServices(db)
	user := createTestUser(t, db, 50000)
	level := createTestLevel(t, db, models.MinLevelQuestions-1)

	_, _, err := game.Create(models.ModeSolo, level.ID, 10000, user.ID, testSecret, 0)
	if !errors.Is(err, ErrInsufficientQuestions) {
		t.Fatalf("expected ErrInsufficientQuestions, got %v", err)
	}
}

func TestCreateLeagueValidatesMaxPlayers(t *testing.T) {
	db := openTestDB(t)
	game, _ := newTestServices(db)
	user := createTestUser(t, db, 50000)
	level := createTestLevel(t, db, 20)

	for _, maxPlayers := range []int{0, 2, models.LeagueMaxPlayers + 1} {
		_, _, err := game.Create(models.ModeLeague, level.ID, 10000, user.ID, testSecret, maxPlayers)
		if !errors.Is(err, ErrInvalidMaxPlayers) {
			t.Fatalf("max_players=%d: expected ErrInvalidMaxPlayers, got %v", maxPlayers, err)
		}
	}
}

func TestDuelJoinAutoStarts(t *testing.T) {
	db := openTestDB(t)
	game, _ := newTestServices(db)
	creator := createTestUser(t, db, 50000)
	joiner := createTestUser(t, db, 50000)
	level := createTestLevel(t, db, 12)

	g, _, err := game.Create(models.ModeDuel, level.ID, 10000, creator.ID, testSecret, 0)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if g.Status != models.GameStatusWaiting {
		t.Fatalf("duel should wait for an opponent, got %s", g.Status)
	}
	if g.MatchCode == "" {
		t.Fatal("duel game needs a match code")
	}

	joined, questions, err := game.Join(models.ModeDuel, g.MatchCode, joiner.ID, testSecret)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if joined.Status != models.GameStatusInProgress {
		t.Fatalf("full duel should auto-start, got %s", joined.Status)
	}
	if len(questions) != models.SoloDuelQuestionCap {
		t.Fatalf("joiner should see the frozen question set, got %d", len(questions))
	}
	if got := userBalance(t, db, joiner.ID); got != 40000 {
		t.Fatalf("joiner stake not debited: %d", got)
	}
}

func TestJoinSameUserTwiceRejected(t *testing.T) {
	db := openTestDB(t)
	game, _ := newTestServices(db)
	creator := createTestUser(t, db, 50000)
	level := createTestLevel(t, db, 12)

	g, _, err := game.Create(models.ModeDuel, level.ID, 10000, creator.ID, testSecret, 0)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, _, err = game.Join(models.ModeDuel, g.MatchCode, creator.ID, testSecret)
	if !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}
	if got := userBalance(t, db, creator.ID); got != 40000 {
		t.Fatalf("rejected join should not double-stake: %d", got)
	}
}

func TestJoinFullGameRejected(t *testing.T) {
	db := openTestDB(t)
	game, _ := newTestServices(db)
	creator := createTestUser(t, db, 50000)
	joiner := createTestUser(t, db, 50000)
	late := createTestUser(t, db, 50000)
	level := createTestLevel(t, db, 12)

	g, _, err := game.Create(models.ModeDuel, level.ID, 10000, creator.ID, testSecret, 0)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, _, err := game.Join(models.ModeDuel, g.MatchCode, joiner.ID, testSecret); err != nil {
		t.Fatalf("first join failed: %v", err)
	}

	_, _, err = game.Join(models.ModeDuel, g.MatchCode, late.ID, testSecret)
	// The started duel is no longer joinable; either rejection keeps the
	// third player out without staking them.
	if !errors.Is(err, ErrGameNotJoinable) && !errors.Is(err, ErrGameFull) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if got := userBalance(t, db, late.ID); got != 50000 {
		t.Fatalf("late joiner should not be staked: %d", got)
	}
}

func TestJoinWrongModeRejected(t *testing.T) {
	db := openTestDB(t)
	game, _ := newTestServices(db)
	creator := createTestUser(t, db, 50000)
	joiner := createTestUser(t, db, 50000)
	level := createTestLevel(t, db, 20)

	g, _, err := game.Create(models.ModeLeague, level.ID, 10000, creator.ID, testSecret, 5)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, _, err = game.Join(models.ModeDuel, g.MatchCode, joiner.ID, testSecret)
	if !errors.Is(err, ErrGameModeMismatch) {
		t.Fatalf("expected ErrGameModeMismatch, got %v", err)
	}
}

func TestLeagueStartRules(t *testing.T) {
	db := openTestDB(t)
	game, _ := newTestServices(db)
	creator := createTestUser(t, db, 50000)
	second := createTestUser(t, db, 50000)
	third := createTestUser(t, db, 50000)
	level := createTestLevel(t, db, 20)

	g, _, err := game.Create(models.ModeLeague, level.ID, 10000, creator.ID, testSecret, 5)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := game.Start(g.ID, creator.ID); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("expected ErrNotEnoughPlayers with one player, got %v", err)
	}

	for _, u := range []models.User{second, third} {
		if _, _, err := game.Join(models.ModeLeague, g.MatchCode, u.ID, testSecret); err != nil {
			t.Fatalf("join failed: %v", err)
		}
	}

	if _, err := game.Start(g.ID, second.ID); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator for a non-creator, got %v", err)
	}

	started, err := game.Start(g.ID, creator.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.Status != models.GameStatusInProgress {
		t.Fatalf("expected in_progress, got %s", started.Status)
	}

	if _, err := game.Start(g.ID, creator.ID); !errors.Is(err, ErrGameAlreadyStarted) {
		t.Fatalf("expected ErrGameAlreadyStarted on a second start, got %v", err)
	}
}

func TestJoinStartedLeagueRejected(t *testing.T) {
	db := openTestDB(t)
	game, _ := newTestServices(db)
	users := make([]models.User, 4)
	for i := range users {
		users[i] = createTestUser(t, db, 50000)
	}
	level := createTestLevel(t, db, 20)

	g, _, err := game.Create(models.ModeLeague, level.ID, 10000, users[0].ID, testSecret, 10)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	for _, u := range users[1:3] {
		if _, _, err := game.Join(models.ModeLeague, g.MatchCode, u.ID, testSecret); err != nil {
			t.Fatalf("join failed: %v", err)
		}
	}
	if _, err := game.Start(g.ID, users[0].ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	_, _, err = game.Join(models.ModeLeague, g.MatchCode, users[3].ID, testSecret)
	if !errors.Is(err, ErrGameNotJoinable) {
		t.Fatalf("expected ErrGameNotJoinable after start, got %v", err)
	}
}
