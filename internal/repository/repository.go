package repository

import (
	"errors"
	"strconv"
	"strings"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicate is returned when a unique row (report, follow) already exists.
var ErrDuplicate = errors.New("duplicate record")

// Orders accepted by list queries.
const (
	OrderLatest = "latest"
	OrderHot    = "hot"
	OrderLikes  = "likes"
)

// validID reports whether id fits a uuid column. Postgres rejects anything
// else outright, so lookups treat a malformed id as a missing row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// validFilterIDs is validID for optional filters: blanks pass.
func validFilterIDs(ids ...string) bool {
	for _, id := range ids {
		if id != "" && !validID(id) {
			return false
		}
	}
	return true
}

// onlyValidIDs drops malformed ids from an IN list.
func onlyValidIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			out = append(out, id)
		}
	}
	return out
}

// deleteTargetRows removes the likes and reports pointing at targets. Both
// tables are polymorphic, so no foreign key cascades them.
func deleteTargetRows(tx *gorm.DB, targetType string, targetIDs []string) error {
	if len(targetIDs) == 0 {
		return nil
	}
	if err := tx.Where("target_type = ? AND target_id IN ?", targetType, targetIDs).Delete(&model.Like{}).Error; err != nil {
		return err
	}
	return tx.Where("target_type = ? AND target_id IN ?", targetType, targetIDs).Delete(&model.Report{}).Error
}

// likedByClause keeps rows of table that userID has liked as targetType.
func likedByClause(table, targetType string) string {
	return "EXISTS (SELECT 1 FROM likes lk WHERE lk.target_type = '" + targetType +
		"' AND lk.target_id = " + table + ".id AND lk.user_id = ?)"
}

// likePattern escapes LIKE wildcards in a user query and wraps it in %...%.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}

// paginate applies limit/offset when limit is positive.
func paginate(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			db = db.Limit(limit)
		}
		if offset > 0 {
			db = db.Offset(offset)
		}
		return db
	}
}

// HashtagNames trims, strips a leading '#', drops blanks and de-duplicates
// while keeping order.
func HashtagNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = hashtagName(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// hashtagName normalises a single hashtag the way HashtagNames does.
func hashtagName(q string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(q), "#"))
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
