package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ntwriter/srscore/internal/scheduler"
)

// CardStore is the concrete scheduler.Store over the cards/revlog tables.
type CardStore struct {
	db *DB
}

func NewCardStore(db *DB) *CardStore {
	return &CardStore{db: db}
}

func (s *CardStore) client() SQLClient { return s.db.Client() }

func (s *CardStore) GetCard(ctx context.Context, id int64) (*scheduler.Card, error) {
	row := s.client().QueryRowContext(ctx, cardColumns("SELECT", "FROM cards WHERE id = ?"), id)
	return scanCard(row)
}

func (s *CardStore) SaveCard(ctx context.Context, card *scheduler.Card) error {
	_, err := s.client().ExecContext(ctx, `
		INSERT INTO cards (id, note_id, deck_id, type, queue, due, ivl, last_ivl, factor, reps, lapses, "left", original_deck_id, original_due, mod, usn)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			note_id = excluded.note_id, deck_id = excluded.deck_id, type = excluded.type,
			queue = excluded.queue, due = excluded.due, ivl = excluded.ivl, last_ivl = excluded.last_ivl,
			factor = excluded.factor, reps = excluded.reps, lapses = excluded.lapses, "left" = excluded."left",
			original_deck_id = excluded.original_deck_id, original_due = excluded.original_due,
			mod = excluded.mod, usn = excluded.usn`,
		card.ID, card.NoteID, card.DeckID, card.Type, card.Queue, card.Due, card.Ivl, card.LastIvl,
		card.Factor, card.Reps, card.Lapses, card.Left, card.OriginalDeckID, card.OriginalDue, card.Mod, card.USN)
	return err
}

func (s *CardStore) NewCount(ctx context.Context, did int64, excludeID, excludeNoteID int64, limit int) (int, error) {
	var n int
	err := s.client().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT id FROM cards WHERE deck_id = ? AND queue = ? AND id != ? AND note_id != ? LIMIT ?
		)`, did, scheduler.QueueNew, excludeID, excludeNoteID, limit).Scan(&n)
	return n, err
}

func (s *CardStore) RevCount(ctx context.Context, dids []int64, today int32, excludeID, excludeNoteID int64, limit int) (int, error) {
	if len(dids) == 0 {
		return 0, nil
	}
	placeholders, args := inClause(dids)
	args = append(args, scheduler.QueueReview, today, excludeID, excludeNoteID, limit)
	var n int
	err := s.client().QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM (
			SELECT id FROM cards WHERE deck_id IN (%s) AND queue = ? AND due <= ? AND id != ? AND note_id != ? LIMIT ?
		)`, placeholders), args...).Scan(&n)
	return n, err
}

func (s *CardStore) LrnCount(ctx context.Context, dids []int64, cutoff int64, today int32, excludeID, excludeNoteID int64) (lrn, dayLrn, preview int, err error) {
	if len(dids) == 0 {
		return 0, 0, 0, nil
	}
	placeholders, args := inClause(dids)
	queryArgs := append(append([]any{}, args...), scheduler.QueueLearning, cutoff, excludeID, excludeNoteID)
	if err = s.client().QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM cards WHERE deck_id IN (%s) AND queue = ? AND due <= ? AND id != ? AND note_id != ?`,
		placeholders), queryArgs...).Scan(&lrn); err != nil {
		return
	}

	queryArgs = append(append([]any{}, args...), scheduler.QueueDayLearnRelearn, today, excludeID, excludeNoteID)
	if err = s.client().QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM cards WHERE deck_id IN (%s) AND queue = ? AND due <= ? AND id != ? AND note_id != ?`,
		placeholders), queryArgs...).Scan(&dayLrn); err != nil {
		return
	}

	queryArgs = append(append([]any{}, args...), scheduler.QueuePreview, excludeID, excludeNoteID)
	err = s.client().QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM cards WHERE deck_id IN (%s) AND queue = ? AND id != ? AND note_id != ?`,
		placeholders), queryArgs...).Scan(&preview)
	return
}

func (s *CardStore) FillNew(ctx context.Context, did int64, excludeID int64, lim int) ([]int64, error) {
	rows, err := s.client().QueryContext(ctx, `
		SELECT id FROM cards WHERE deck_id = ? AND queue = ? AND id != ? AND note_id != ?
		ORDER BY due ASC LIMIT ?`, did, scheduler.QueueNew, excludeID, excludeID, lim)
	if err != nil {
		return nil, err
	}
	return scanInt64s(rows)
}

func (s *CardStore) FillRev(ctx context.Context, dids []int64, today int32, excludeID int64, lim int) ([]int64, error) {
	if len(dids) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(dids)
	args = append(args, scheduler.QueueReview, today, excludeID, excludeID, lim)
	rows, err := s.client().QueryContext(ctx, fmt.Sprintf(`
		SELECT id FROM cards WHERE deck_id IN (%s) AND queue = ? AND due <= ? AND id != ? AND note_id != ?
		ORDER BY due ASC LIMIT ?`, placeholders), args...)
	if err != nil {
		return nil, err
	}
	return scanInt64s(rows)
}

func (s *CardStore) FillLrn(ctx context.Context, dids []int64, cutoff int64, excludeID int64, lim int) ([]scheduler.LrnQueueEntry, error) {
	if len(dids) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(dids)
	args = append(args, scheduler.QueueLearning, scheduler.QueuePreview, cutoff, excludeID, excludeID, lim)
	rows, err := s.client().QueryContext(ctx, fmt.Sprintf(`
		SELECT id, due FROM cards WHERE deck_id IN (%s) AND queue IN (?, ?) AND due <= ? AND id != ? AND note_id != ?
		ORDER BY due ASC LIMIT ?`, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []scheduler.LrnQueueEntry
	for rows.Next() {
		var e scheduler.LrnQueueEntry
		if err := rows.Scan(&e.ID, &e.Due); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *CardStore) FillLrnDay(ctx context.Context, did int64, today int32, excludeID int64, lim int) ([]int64, error) {
	rows, err := s.client().QueryContext(ctx, `
		SELECT id FROM cards WHERE deck_id = ? AND queue = ? AND due <= ? AND id != ? AND note_id != ?
		ORDER BY due ASC LIMIT ?`, did, scheduler.QueueDayLearnRelearn, today, excludeID, excludeID, lim)
	if err != nil {
		return nil, err
	}
	return scanInt64s(rows)
}

func (s *CardStore) CardsByNote(ctx context.Context, noteID int64) ([]*scheduler.Card, error) {
	rows, err := s.client().QueryContext(ctx, cardColumns("SELECT", "FROM cards WHERE note_id = ?"), noteID)
	if err != nil {
		return nil, err
	}
	return scanCards(rows)
}

func (s *CardStore) BuryCards(ctx context.Context, ids []int64, queue scheduler.CardQueue) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders, args := inClause(ids)
	args = append([]any{queue}, args...)
	_, err := s.client().ExecContext(ctx, fmt.Sprintf(`UPDATE cards SET queue = ? WHERE id IN (%s)`, placeholders), args...)
	return err
}

// RestoreQueueFromType reconstructs queue from type and due: a (re)learning
// card lands back in Learning if its due looks like an epoch-seconds
// timestamp, or DayLearnRelearn if due is a small day index. New and Review
// pass through unchanged since CardNew/CardReview already equal
// QueueNew/QueueReview numerically. original_due defaults to 0 (not NULL)
// when a card isn't in a filtered deck, so 0 falls back to due rather than
// SQL NULL-coalescing.
func (s *CardStore) RestoreQueueFromType(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders, args := inClause(ids)
	_, err := s.client().ExecContext(ctx, fmt.Sprintf(`
		UPDATE cards SET queue = CASE
			WHEN type IN (%d, %d) THEN
				CASE WHEN (CASE WHEN original_due != 0 THEN original_due ELSE due END) > 1000000000
					THEN %d ELSE %d END
			ELSE type
		END WHERE id IN (%s)`,
		scheduler.CardLearning, scheduler.CardRelearning,
		scheduler.QueueLearning, scheduler.QueueDayLearnRelearn,
		placeholders), args...)
	return err
}

func (s *CardStore) CardIDsInQueue(ctx context.Context, queue scheduler.CardQueue, dids []int64) ([]int64, error) {
	if len(dids) == 0 {
		rows, err := s.client().QueryContext(ctx, `SELECT id FROM cards WHERE queue = ?`, queue)
		if err != nil {
			return nil, err
		}
		return scanInt64s(rows)
	}
	placeholders, args := inClause(dids)
	args = append([]any{queue}, args...)
	rows, err := s.client().QueryContext(ctx, fmt.Sprintf(`SELECT id FROM cards WHERE queue = ? AND deck_id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, err
	}
	return scanInt64s(rows)
}

func (s *CardStore) CardsInDeck(ctx context.Context, did int64) ([]*scheduler.Card, error) {
	rows, err := s.client().QueryContext(ctx, cardColumns("SELECT", "FROM cards WHERE deck_id = ?"), did)
	if err != nil {
		return nil, err
	}
	return scanCards(rows)
}

// SearchCards evaluates an opaque "field:value" query over the small
// subset of card attributes a filtered deck term can reasonably express.
// It always excludes suspended/buried/filtered cards, matching the
// scheduler.Store contract.
func (s *CardStore) SearchCards(ctx context.Context, search string, limit int) ([]int64, error) {
	where := []string{
		fmt.Sprintf("queue NOT IN (%d, %d, %d, %d)", scheduler.QueueSuspended, scheduler.QueueSiblingBuried, scheduler.QueueManuallyBuried, scheduler.QueuePreview),
		"original_deck_id = 0",
	}
	var args []any
	for _, term := range strings.Fields(search) {
		parts := strings.SplitN(term, ":", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "deck":
			where = append(where, "deck_id = (SELECT id FROM decks WHERE name = ? LIMIT 1)")
			args = append(args, parts[1])
		case "is":
			if parts[1] == "due" {
				where = append(where, "queue = ?")
				args = append(args, scheduler.QueueReview)
			}
		}
	}
	args = append(args, limit)
	rows, err := s.client().QueryContext(ctx, fmt.Sprintf(`
		SELECT id FROM cards WHERE %s LIMIT ?`, strings.Join(where, " AND ")), args...)
	if err != nil {
		return nil, err
	}
	return scanInt64s(rows)
}

func (s *CardStore) AppendRevlog(ctx context.Context, entry scheduler.RevlogEntry) error {
	_, err := s.client().ExecContext(ctx, `
		INSERT INTO revlog (time_ms, card_id, usn, ease, ivl, last_ivl, factor, time_taken, type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.TimeMs, entry.CardID, entry.USN, entry.Ease, entry.Ivl, entry.LastIvl, entry.Factor, entry.TimeTaken, entry.Type)
	if err != nil && isUniqueConstraint(err) {
		return scheduler.ErrRevlogKeyClash
	}
	return err
}

func (s *CardStore) MaxNewDue(ctx context.Context) (int64, error) {
	var due sql.NullInt64
	err := s.client().QueryRowContext(ctx, `SELECT MAX(due) FROM cards WHERE queue = ?`, scheduler.QueueNew).Scan(&due)
	if err != nil {
		return 0, err
	}
	return due.Int64, nil
}

func (s *CardStore) ShiftNewDue(ctx context.Context, threshold int64, delta int64, excludeIDs []int64) error {
	if len(excludeIDs) == 0 {
		_, err := s.client().ExecContext(ctx, `UPDATE cards SET due = due + ? WHERE queue = ? AND due >= ?`,
			delta, scheduler.QueueNew, threshold)
		return err
	}
	placeholders, args := inClause(excludeIDs)
	queryArgs := append([]any{delta, scheduler.QueueNew, threshold}, args...)
	_, err := s.client().ExecContext(ctx, fmt.Sprintf(`
		UPDATE cards SET due = due + ? WHERE queue = ? AND due >= ? AND id NOT IN (%s)`, placeholders), queryArgs...)
	return err
}

/* scan helpers */

func cardColumns(verb, suffix string) string {
	return fmt.Sprintf(`%s id, note_id, deck_id, type, queue, due, ivl, last_ivl, factor, reps, lapses, "left", original_deck_id, original_due, mod, usn %s`, verb, suffix)
}

func scanCard(row *sql.Row) (*scheduler.Card, error) {
	var c scheduler.Card
	err := row.Scan(&c.ID, &c.NoteID, &c.DeckID, &c.Type, &c.Queue, &c.Due, &c.Ivl, &c.LastIvl,
		&c.Factor, &c.Reps, &c.Lapses, &c.Left, &c.OriginalDeckID, &c.OriginalDue, &c.Mod, &c.USN)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCards(rows *sql.Rows) ([]*scheduler.Card, error) {
	defer rows.Close()
	var cards []*scheduler.Card
	for rows.Next() {
		var c scheduler.Card
		if err := rows.Scan(&c.ID, &c.NoteID, &c.DeckID, &c.Type, &c.Queue, &c.Due, &c.Ivl, &c.LastIvl,
			&c.Factor, &c.Reps, &c.Lapses, &c.Left, &c.OriginalDeckID, &c.OriginalDue, &c.Mod, &c.USN); err != nil {
			return nil, err
		}
		cards = append(cards, &c)
	}
	return cards, rows.Err()
}

func scanInt64s(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func inClause(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}

func isUniqueConstraint(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
