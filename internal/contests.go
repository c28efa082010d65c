package internal

import (
	"context"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx so fetch helpers work
// inside and outside transactions.
type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const contestCols = `id, owner_id, brand_id, title, description, platform, package_tier,
	expected_submissions, winners_needed, round, accepted_count, status, winning_submission_id`

func scanContest(row pgx.Row) (Contest, error) {
	var ct Contest
	err := row.Scan(&ct.ID, &ct.OwnerID, &ct.BrandID, &ct.Title, &ct.Description,
		&ct.Platform, &ct.PackageTier, &ct.ExpectedSubmissions, &ct.WinnersNeeded,
		&ct.Round, &ct.AcceptedCount, &ct.Status, &ct.WinningSubmissionID)
	return ct, err
}

func getContest(ctx context.Context, q dbtx, id int, forUpdate bool) (Contest, error) {
	sql := "SELECT " + contestCols + " FROM contests WHERE id=$1"
	if forUpdate {
		sql += " FOR UPDATE"
	}
	return scanContest(q.QueryRow(ctx, sql, id))
}

type brandPayload struct {
	LogoURL     string   `json:"logo_url"`
	Colors      []string `json:"colors"`
	Fonts       []string `json:"fonts"`
	Description string   `json:"description"`
}

// upsertBrand keeps one brand row per owner, refreshed on every contest
// create/edit.
func upsertBrand(ctx context.Context, q dbtx, ownerID int, b brandPayload) (int, error) {
	var id int
	err := q.QueryRow(ctx, `
		INSERT INTO brands(user_id, logo_url, colors, fonts, description, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
		ON CONFLICT (user_id) DO UPDATE
		SET logo_url=EXCLUDED.logo_url, colors=EXCLUDED.colors,
		    fonts=EXCLUDED.fonts, description=EXCLUDED.description, updated_at=now()
		RETURNING id`,
		ownerID, b.LogoURL, b.Colors, b.Fonts, b.Description,
	).Scan(&id)
	return id, err
}

// ------------------- create / edit -------------------

// POST /api/contests  (user role)
func CreateContest(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		var req struct {
			Title               string       `json:"title"`
			Description         string       `json:"description"`
			Platform            string       `json:"platform"`
			PackageTier         string       `json:"package_tier"`
			ExpectedSubmissions int          `json:"expected_submissions"`
			WinnersNeeded       int          `json:"winners_needed"`
			Draft               bool         `json:"draft"`
			Brand               brandPayload `json:"brand"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}
		if req.Title == "" || req.Platform == "" {
			c.JSON(400, gin.H{"error": "title and platform are required"})
			return
		}
		if req.WinnersNeeded < 1 {
			req.WinnersNeeded = 1
		}
		if req.PackageTier == "" {
			req.PackageTier = "basic"
		}

		status := ContestActive
		if req.Draft {
			status = ContestDraft
		}

		ctx := context.Background()
		tx, err := db.Begin(ctx)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer tx.Rollback(ctx)

		brandID, err := upsertBrand(ctx, tx, a.ID, req.Brand)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		ct, err := scanContest(tx.QueryRow(ctx, `
			INSERT INTO contests(owner_id, brand_id, title, description, platform,
				package_tier, expected_submissions, winners_needed, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING `+contestCols,
			a.ID, brandID, req.Title, req.Description, req.Platform,
			req.PackageTier, req.ExpectedSubmissions, req.WinnersNeeded, status,
		))
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		if err := tx.Commit(ctx); err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &a.ID, "create_contest", "contest_id="+strconv.Itoa(ct.ID))
		c.JSON(200, gin.H{"contest": ct})
	}
}

// POST /api/contests/:id/publish  (user role, owner)
func PublishContest(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		id, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		ct, err := getContest(ctx, db, id, false)
		if err != nil {
			c.JSON(404, gin.H{"error": "contest not found"})
			return
		}
		if ct.OwnerID != a.ID {
			c.JSON(403, gin.H{"error": "not your contest"})
			return
		}
		if err := canPublish(ct); err != nil {
			c.JSON(409, gin.H{"error": err.Error()})
			return
		}

		_, err = db.Exec(ctx,
			"UPDATE contests SET status=$1, updated_at=now() WHERE id=$2", ContestActive, id)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		ct.Status = ContestActive

		logAction(db, &a.ID, "publish_contest", "contest_id="+strconv.Itoa(id))
		c.JSON(200, gin.H{"contest": ct})
	}
}

// PUT /api/contests/:id  (user role, owner)
func UpdateContest(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		id, _ := strconv.Atoi(c.Param("id"))
		var req struct {
			Title               string        `json:"title"`
			Description         string        `json:"description"`
			Platform            string        `json:"platform"`
			PackageTier         string        `json:"package_tier"`
			ExpectedSubmissions int           `json:"expected_submissions"`
			WinnersNeeded       int           `json:"winners_needed"`
			Brand               *brandPayload `json:"brand"`
		}
		if err := c.BindJSON(&req); err != nil || req.Title == "" {
			c.JSON(400, gin.H{"error": "bad request"})
			return
		}
		if req.WinnersNeeded < 1 {
			c.JSON(400, gin.H{"error": "winners_needed must be at least 1"})
			return
		}

		ctx := context.Background()
		ct, err := getContest(ctx, db, id, false)
		if err != nil {
			c.JSON(404, gin.H{"error": "contest not found"})
			return
		}
		if ct.OwnerID != a.ID {
			c.JSON(403, gin.H{"error": "not your contest"})
			return
		}
		if err := canEditContest(ct); err != nil {
			c.JSON(409, gin.H{"error": err.Error()})
			return
		}

		if req.Brand != nil {
			if _, err := upsertBrand(ctx, db, a.ID, *req.Brand); err != nil {
				c.JSON(500, gin.H{"error": "db"})
				return
			}
		}

		_, err = qExec(ctx, db, psql.Update("contests").
			Set("title", req.Title).
			Set("description", req.Description).
			Set("platform", req.Platform).
			Set("package_tier", req.PackageTier).
			Set("expected_submissions", req.ExpectedSubmissions).
			Set("winners_needed", req.WinnersNeeded).
			Set("updated_at", sq.Expr("now()")).
			Where(sq.Eq{"id": id}))
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &a.ID, "update_contest", "contest_id="+strconv.Itoa(id))
		c.JSON(200, gin.H{"ok": true})
	}
}

// ------------------- list / detail -------------------

// GET /api/contests?status=active|draft|completed|cancelled|all
func ListContests(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := c.Query("status")
		ctx := context.Background()

		q := psql.Select(contestCols).From("contests").OrderBy("id DESC").Limit(200)
		if status != "" && status != "all" {
			q = q.Where(sq.Eq{"status": status})
		}

		rows, err := qQuery(ctx, db, q)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer rows.Close()

		out := []Contest{}
		for rows.Next() {
			ct, err := scanContest(rows)
			if err != nil {
				c.JSON(500, gin.H{"error": "scan"})
				return
			}
			out = append(out, ct)
		}
		c.JSON(200, out)
	}
}

// GET /api/my/contests  (user role)
func MyContests(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		rows, err := qQuery(context.Background(), db, psql.Select(contestCols).
			From("contests").Where(sq.Eq{"owner_id": a.ID}).OrderBy("id DESC"))
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer rows.Close()

		out := []Contest{}
		for rows.Next() {
			ct, err := scanContest(rows)
			if err != nil {
				c.JSON(500, gin.H{"error": "scan"})
				return
			}
			out = append(out, ct)
		}
		c.JSON(200, out)
	}
}

// GET /api/contests/:id — contest with brand and submissions
func GetContest(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		id, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		ct, err := getContest(ctx, db, id, false)
		if err != nil {
			c.JSON(404, gin.H{"error": "contest not found"})
			return
		}

		var b Brand
		err = qRow(ctx, db, psql.Select("id, user_id, logo_url, colors, fonts, description").
			From("brands").Where(sq.Eq{"id": ct.BrandID})).
			Scan(&b.ID, &b.UserID, &b.LogoURL, &b.Colors, &b.Fonts, &b.Description)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		rows, err := db.Query(ctx,
			"SELECT "+submissionCols+" FROM submissions WHERE contest_id=$1 ORDER BY round ASC, id ASC", id)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer rows.Close()

		subs := []Submission{}
		for rows.Next() {
			s, err := scanSubmission(rows)
			if err != nil {
				c.JSON(500, gin.H{"error": "scan"})
				return
			}
			subs = append(subs, s)
		}

		c.JSON(200, gin.H{"contest": ct, "brand": b, "submissions": submissionsVisibleTo(a, ct, subs)})
	}
}

// ------------------- state machine transitions -------------------

// POST /api/contests/:id/advance  (user role, owner)
//
// The contest row is locked for the whole transaction so a concurrent
// advance either sees the old round (and re-runs the guards against it)
// or blocks until this one commits and then fails the round guard.
// Carry-over inserts are idempotent against the partial unique index.
func AdvanceRound(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		id, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		tx, err := db.Begin(ctx)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer tx.Rollback(ctx)

		ct, err := getContest(ctx, tx, id, true)
		if err != nil {
			c.JSON(404, gin.H{"error": "contest not found"})
			return
		}
		if ct.OwnerID != a.ID {
			c.JSON(403, gin.H{"error": "not your contest"})
			return
		}

		var acceptedInRound int
		err = tx.QueryRow(ctx,
			"SELECT COUNT(*) FROM submissions WHERE contest_id=$1 AND round=$2 AND status=$3",
			id, ct.Round, SubAccepted,
		).Scan(&acceptedInRound)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		if err := canAdvanceRound(ct, acceptedInRound); err != nil {
			c.JSON(409, gin.H{"error": err.Error()})
			return
		}

		newRound := ct.Round + 1

		// carry accepted designers into the new round; retries hit the
		// unique index and insert nothing
		tag, err := tx.Exec(ctx, `
			INSERT INTO submissions(contest_id, designer_id, round, status)
			SELECT contest_id, designer_id, $1, $2
			FROM submissions
			WHERE contest_id=$3 AND round=$4 AND status=$2
			ON CONFLICT (contest_id, designer_id, round) WHERE NOT is_modification DO NOTHING`,
			newRound, SubAccepted, id, ct.Round)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		carried := int(tag.RowsAffected())

		// accepted_count is always a full recount, never an increment
		var accepted int
		err = tx.QueryRow(ctx,
			"SELECT COUNT(*) FROM submissions WHERE contest_id=$1 AND status=$2",
			id, SubAccepted,
		).Scan(&accepted)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		_, err = tx.Exec(ctx,
			"UPDATE contests SET round=$1, accepted_count=$2, updated_at=now() WHERE id=$3",
			newRound, accepted, id)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		if err := tx.Commit(ctx); err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		ct.Round = newRound
		ct.AcceptedCount = accepted

		logAction(db, &a.ID, "advance_round", "contest_id="+strconv.Itoa(id)+" round="+strconv.Itoa(newRound))
		c.JSON(200, gin.H{"contest": ct, "carried_over": carried})
	}
}

// POST /api/contests/:id/winner  (user role, owner)  {submission_id}
//
// Marking the winner, counting winners and completing the contest happen in
// one transaction under a row lock so concurrent selections cannot pass the
// quota.
func SelectWinner(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		id, _ := strconv.Atoi(c.Param("id"))
		var req struct {
			SubmissionID int `json:"submission_id"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": "bad request"})
			return
		}

		ctx := context.Background()
		tx, err := db.Begin(ctx)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer tx.Rollback(ctx)

		ct, err := getContest(ctx, tx, id, true)
		if err != nil {
			c.JSON(404, gin.H{"error": "contest not found"})
			return
		}
		if ct.OwnerID != a.ID {
			c.JSON(403, gin.H{"error": "not your contest"})
			return
		}

		sub, err := getSubmission(ctx, tx, req.SubmissionID)
		if err != nil {
			c.JSON(404, gin.H{"error": "submission not found"})
			return
		}

		if err := canSelectWinner(ct, sub); err != nil {
			c.JSON(409, gin.H{"error": err.Error()})
			return
		}

		_, err = qExecTx(ctx, tx, psql.Update("submissions").
			Set("status", SubWinner).Where(sq.Eq{"id": sub.ID}))
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		var winners int
		err = tx.QueryRow(ctx,
			"SELECT COUNT(*) FROM submissions WHERE contest_id=$1 AND status=$2",
			id, SubWinner,
		).Scan(&winners)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		enough := winnerQuotaMet(ct, winners)
		if enough {
			_, err = tx.Exec(ctx,
				"UPDATE contests SET status=$1, winning_submission_id=$2, updated_at=now() WHERE id=$3",
				ContestCompleted, sub.ID, id)
			if err != nil {
				c.JSON(500, gin.H{"error": "db"})
				return
			}
			ct.Status = ContestCompleted
			ct.WinningSubmissionID = &sub.ID
		}

		if err := tx.Commit(ctx); err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &a.ID, "select_winner",
			"contest_id="+strconv.Itoa(id)+" submission_id="+strconv.Itoa(sub.ID))
		c.JSON(200, gin.H{
			"contest":            ct,
			"has_enough_winners": enough,
			"current_winners":    winners,
		})
	}
}

// POST /api/contests/:id/cancel  (user role, owner)
func CancelContest(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		id, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		tx, err := db.Begin(ctx)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer tx.Rollback(ctx)

		ct, err := getContest(ctx, tx, id, true)
		if err != nil {
			c.JSON(404, gin.H{"error": "contest not found"})
			return
		}
		if ct.OwnerID != a.ID {
			c.JSON(403, gin.H{"error": "not your contest"})
			return
		}

		var acceptedInRoundOne bool
		err = tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM submissions WHERE contest_id=$1 AND round=1 AND status=$2)",
			id, SubAccepted,
		).Scan(&acceptedInRoundOne)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		if err := canCancel(ct, acceptedInRoundOne); err != nil {
			c.JSON(409, gin.H{"error": err.Error()})
			return
		}

		_, err = tx.Exec(ctx,
			"UPDATE contests SET status=$1, updated_at=now() WHERE id=$2", ContestCancelled, id)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		if err := tx.Commit(ctx); err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		ct.Status = ContestCancelled

		logAction(db, &a.ID, "cancel_contest", "contest_id="+strconv.Itoa(id))
		c.JSON(200, gin.H{"contest": ct})
	}
}
