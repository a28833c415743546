package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"scholarxp-api/models"

	"gorm.io/gorm"
)

// Match tiers, strongest first. A tier with exactly one candidate wins; a
// tier with several is reported as ambiguous rather than guessed at, since
// base-handle and username matching can collide.
const (
	MatchTierExact      = "exact"
	MatchTierBaseHandle = "base_handle"
	MatchTierUsername   = "username"
	MatchTierNone       = "none"
)

var (
	ErrLegacyAlreadyMerged = errors.New("legacy account already merged")
	ErrAmbiguousMatch      = errors.New("handle matches multiple users")
)

// HandleMatch is the outcome of matching a Discord handle against users.
type HandleMatch struct {
	Tier       string        `json:"tier"`
	User       *models.User  `json:"user,omitempty"`
	Ambiguous  bool          `json:"ambiguous"`
	Candidates []models.User `json:"candidates,omitempty"`
}

// BaseHandle strips the discriminator from a Discord handle:
// "scholar#1234" -> "scholar".
func BaseHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	if i := strings.IndexByte(handle, '#'); i >= 0 {
		return handle[:i]
	}
	return handle
}

// MatchHandle runs the three-tier heuristic over the given users: exact
// discord handle, then base handle, then username equal to the base handle.
// Matching is case-insensitive. Multiple candidates at the winning tier
// yield an ambiguous result with the candidates listed.
func MatchHandle(users []models.User, handle string) HandleMatch {
	normalized := strings.ToLower(strings.TrimSpace(handle))
	base := strings.ToLower(BaseHandle(handle))
	if normalized == "" {
		return HandleMatch{Tier: MatchTierNone}
	}

	tiers := []struct {
		name  string
		match func(u *models.User) bool
	}{
		{MatchTierExact, func(u *models.User) bool {
			return u.DiscordHandle != nil && strings.ToLower(*u.DiscordHandle) == normalized
		}},
		{MatchTierBaseHandle, func(u *models.User) bool {
			return u.DiscordHandle != nil && strings.ToLower(BaseHandle(*u.DiscordHandle)) == base
		}},
		{MatchTierUsername, func(u *models.User) bool {
			return strings.ToLower(u.Username) == base
		}},
	}

	for _, tier := range tiers {
		var candidates []models.User
		for i := range users {
			if tier.match(&users[i]) {
				candidates = append(candidates, users[i])
			}
		}
		switch len(candidates) {
		case 0:
			continue
		case 1:
			return HandleMatch{Tier: tier.name, User: &candidates[0]}
		default:
			return HandleMatch{Tier: tier.name, Ambiguous: true, Candidates: candidates}
		}
	}
	return HandleMatch{Tier: MatchTierNone}
}

type LegacyService struct {
	db *gorm.DB
	xp *XpService
}

func NewLegacyService(db *gorm.DB, xp *XpService) *LegacyService {
	return &LegacyService{db: db, xp: xp}
}

// FindMatch matches a handle against all active users.
func (s *LegacyService) FindMatch(handle string) (*HandleMatch, error) {
	var users []models.User
	if err := s.db.Where("delete_at IS NULL").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users for matching: %w", err)
	}
	match := MatchHandle(users, handle)
	return &match, nil
}

// Merge folds a legacy account into a user: the legacy XP lands as one
// ACHIEVEMENT ledger entry, totals are recalculated on the same
// transaction, and the legacy row is linked so it can never merge twice.
// The target user id is explicit; Merge never resolves ambiguity itself.
func (s *LegacyService) Merge(legacyID, userID, adminID int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var legacy models.LegacyAccount
		if err := tx.First(&legacy, "legacy_id = ?", legacyID).Error; err != nil {
			return err
		}
		if legacy.MergedIntoUserID != nil {
			return ErrLegacyAlreadyMerged
		}

		var user models.User
		if err := tx.First(&user, "user_id = ? AND delete_at IS NULL", userID).Error; err != nil {
			return err
		}

		now := time.Now()
		if legacy.TotalXp != 0 {
			sourceType := "legacy_account"
			if err := s.xp.append(tx, &models.XpTransaction{
				UserID:      userID,
				Amount:      legacy.TotalXp,
				Type:        models.XpTypeAchievement,
				SourceType:  &sourceType,
				SourceID:    &legacyID,
				Description: fmt.Sprintf("Legacy account merge (%s)", legacy.DiscordHandle),
				AdminID:     &adminID,
			}); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.LegacyAccount{}).
			Where("legacy_id = ?", legacyID).
			Updates(map[string]interface{}{
				"merged_into_user_id": userID,
				"merged_at":           now,
			}).Error; err != nil {
			return fmt.Errorf("failed to link legacy account: %w", err)
		}

		audit := models.AdminAction{
			AdminID:    &adminID,
			Action:     "LEGACY_MERGE",
			TargetType: "user",
			TargetID:   userID,
			Details:    fmt.Sprintf("merged legacy account %d (%s), %d xp", legacyID, legacy.DiscordHandle, legacy.TotalXp),
			CreateAt:   now,
		}
		return tx.Create(&audit).Error
	})
}
