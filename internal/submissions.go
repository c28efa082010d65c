package internal

import (
	"context"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const submissionCols = `id, contest_id, designer_id, round, status, is_modification,
	modifications_allowed, modification_requested_at`

func scanSubmission(row pgx.Row) (Submission, error) {
	var s Submission
	err := row.Scan(&s.ID, &s.ContestID, &s.DesignerID, &s.Round, &s.Status,
		&s.IsModification, &s.ModificationsAllowed, &s.ModificationRequestedAt)
	return s, err
}

func getSubmission(ctx context.Context, q dbtx, id int) (Submission, error) {
	return scanSubmission(q.QueryRow(ctx,
		"SELECT "+submissionCols+" FROM submissions WHERE id=$1", id))
}

// loadForReview fetches a submission together with its contest and checks
// that the caller owns the contest. Every owner-side review operation starts
// here.
func loadForReview(ctx context.Context, q dbtx, subID, ownerID int) (Submission, Contest, int, string) {
	sub, err := getSubmission(ctx, q, subID)
	if err != nil {
		return Submission{}, Contest{}, 404, "submission not found"
	}
	ct, err := getContest(ctx, q, sub.ContestID, false)
	if err != nil {
		return Submission{}, Contest{}, 404, "contest not found"
	}
	if ct.OwnerID != ownerID {
		return Submission{}, Contest{}, 403, "not your contest"
	}
	return sub, ct, 0, ""
}

// ------------------- designer: create / delete -------------------

// POST /api/contests/:id/submissions  (designer role, multipart)
//
// Fields: files (one or more), comment (optional), is_modification.
func CreateSubmission(db *pgxpool.Pool, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		contestID, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		ct, err := getContest(ctx, db, contestID, false)
		if err != nil {
			c.JSON(404, gin.H{"error": "contest not found"})
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(400, gin.H{"error": "multipart form required"})
			return
		}
		files := form.File["files"]
		if len(files) == 0 {
			c.JSON(400, gin.H{"error": "at least one file is required"})
			return
		}
		isModification := c.PostForm("is_modification") == "true"
		comment := c.PostForm("comment")

		var existing *Submission
		sub, err := scanSubmission(db.QueryRow(ctx,
			"SELECT "+submissionCols+` FROM submissions
			 WHERE contest_id=$1 AND designer_id=$2 AND round=$3 AND NOT is_modification`,
			contestID, a.ID, ct.Round))
		if err == nil {
			existing = &sub
		} else if err != pgx.ErrNoRows {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		action, ruleErr := decideSubmit(ct, existing, isModification)
		if ruleErr != nil {
			c.JSON(409, gin.H{"error": ruleErr.Error()})
			return
		}

		// store the files before touching the DB; a failed tx leaves only
		// orphan files, never a submission without its assets
		saved, err := saveUploads(c, files, uploadDir)
		if err != nil {
			c.JSON(500, gin.H{"error": "failed to store upload"})
			return
		}

		tx, err := db.Begin(ctx)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer tx.Rollback(ctx)

		if action == submitModification {
			// a grant covers exactly one modification row; the owner must
			// request again for another
			if _, err := tx.Exec(ctx,
				"UPDATE submissions SET modifications_allowed=false WHERE id=$1",
				existing.ID); err != nil {
				c.JSON(500, gin.H{"error": "db"})
				return
			}
		}

		if action == submitReplacePassed {
			// the passed row and its assets/comments go away, the designer
			// starts fresh in the same round
			if _, err := tx.Exec(ctx, "DELETE FROM submissions WHERE id=$1", existing.ID); err != nil {
				c.JSON(500, gin.H{"error": "db"})
				return
			}
		}

		status := SubPending
		if action == submitModification {
			status = SubModification
		}

		newSub, err := scanSubmission(tx.QueryRow(ctx, `
			INSERT INTO submissions(contest_id, designer_id, round, status, is_modification)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING `+submissionCols,
			contestID, a.ID, ct.Round, status, action == submitModification))
		if err != nil {
			c.JSON(409, gin.H{"error": "you already have a submission in this round"})
			return
		}

		for _, f := range saved {
			_, err = tx.Exec(ctx, `
				INSERT INTO assets(submission_id, url, file_name, file_size, content_type)
				VALUES ($1,$2,$3,$4,$5)`,
				newSub.ID, f.url, f.name, f.size, f.contentType)
			if err != nil {
				c.JSON(500, gin.H{"error": "db"})
				return
			}
		}

		if comment != "" {
			_, err = tx.Exec(ctx,
				"INSERT INTO comments(submission_id, author_id, body) VALUES ($1,$2,$3)",
				newSub.ID, a.ID, comment)
			if err != nil {
				c.JSON(500, gin.H{"error": "db"})
				return
			}
		}

		if err := tx.Commit(ctx); err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &a.ID, "create_submission",
			"contest_id="+strconv.Itoa(contestID)+" submission_id="+strconv.Itoa(newSub.ID))
		c.JSON(200, gin.H{"submission": newSub})
	}
}

// DELETE /api/submissions/:id  (designer role, own pending submission)
func DeleteSubmission(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		id, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		sub, err := getSubmission(ctx, db, id)
		if err != nil {
			c.JSON(404, gin.H{"error": "submission not found"})
			return
		}
		if err := canDeleteSubmission(sub, a.ID); err != nil {
			c.JSON(409, gin.H{"error": err.Error()})
			return
		}

		// assets and comments cascade
		if _, err := db.Exec(ctx, "DELETE FROM submissions WHERE id=$1", id); err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &a.ID, "delete_submission", "submission_id="+strconv.Itoa(id))
		c.JSON(200, gin.H{"ok": true})
	}
}

// GET /api/my/submissions  (designer role)
func MySubmissions(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		rows, err := qQuery(context.Background(), db, psql.
			Select("s.id, s.contest_id, s.designer_id, s.round, s.status, s.is_modification",
				"s.modifications_allowed, s.modification_requested_at").
			From("submissions s").
			Where(sq.Eq{"s.designer_id": a.ID}).
			OrderBy("s.id DESC"))
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer rows.Close()

		out := []Submission{}
		for rows.Next() {
			s, err := scanSubmission(rows)
			if err != nil {
				c.JSON(500, gin.H{"error": "scan"})
				return
			}
			out = append(out, s)
		}
		c.JSON(200, out)
	}
}

// ------------------- owner: review -------------------

// POST /api/submissions/:id/accept  (user role, contest owner)
func AcceptSubmission(db *pgxpool.Pool) gin.HandlerFunc {
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

		sub, ct, code, msg := loadForReview(ctx, tx, id, a.ID)
		if code != 0 {
			c.JSON(code, gin.H{"error": msg})
			return
		}
		if err := canAccept(ct, sub); err != nil {
			c.JSON(409, gin.H{"error": err.Error()})
			return
		}

		if _, err := tx.Exec(ctx,
			"UPDATE submissions SET status=$1 WHERE id=$2", SubAccepted, id); err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		sub.Status = SubAccepted

		// resync the cached counter from the rows, never increment
		var accepted int
		err = tx.QueryRow(ctx,
			"SELECT COUNT(*) FROM submissions WHERE contest_id=$1 AND status=$2",
			ct.ID, SubAccepted,
		).Scan(&accepted)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		if _, err := tx.Exec(ctx,
			"UPDATE contests SET accepted_count=$1, updated_at=now() WHERE id=$2",
			accepted, ct.ID); err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		if err := tx.Commit(ctx); err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &a.ID, "accept_submission", "submission_id="+strconv.Itoa(id))
		c.JSON(200, gin.H{"submission": sub, "new_accepted_count": accepted})
	}
}

// POST /api/submissions/:id/pass  (user role, contest owner)
func PassSubmission(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		id, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		sub, ct, code, msg := loadForReview(ctx, db, id, a.ID)
		if code != 0 {
			c.JSON(code, gin.H{"error": msg})
			return
		}
		if err := canPass(ct, sub); err != nil {
			c.JSON(409, gin.H{"error": err.Error()})
			return
		}

		if _, err := db.Exec(ctx,
			"UPDATE submissions SET status=$1 WHERE id=$2", SubPassed, id); err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &a.ID, "pass_submission", "submission_id="+strconv.Itoa(id))
		c.JSON(200, gin.H{})
	}
}

// POST /api/submissions/:id/modification  (user role, contest owner)
//
// Flips modifications_allowed so the designer may submit a modification row
// alongside the accepted one, and leaves an audit comment on the thread.
func EnableModification(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		id, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		sub, ct, code, msg := loadForReview(ctx, db, id, a.ID)
		if code != 0 {
			c.JSON(code, gin.H{"error": msg})
			return
		}
		if err := canEnableModification(ct, sub); err != nil {
			c.JSON(409, gin.H{"error": err.Error()})
			return
		}

		sub, err := scanSubmission(db.QueryRow(ctx, `
			UPDATE submissions SET modifications_allowed=true, modification_requested_at=now()
			WHERE id=$1 RETURNING `+submissionCols, id))
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		_, _ = db.Exec(ctx,
			"INSERT INTO comments(submission_id, author_id, body) VALUES ($1,$2,$3)",
			id, a.ID, "Modification requested by the contest owner.")

		logAction(db, &a.ID, "enable_modification", "submission_id="+strconv.Itoa(id))
		c.JSON(200, gin.H{"submission": sub})
	}
}

// ------------------- shared: detail / comments -------------------

// submissionsVisibleTo scopes a contest's submission list to the caller: the
// owner sees every row, a designer sees only their own.
func submissionsVisibleTo(a Actor, ct Contest, subs []Submission) []Submission {
	if a.ID == ct.OwnerID {
		return subs
	}
	out := []Submission{}
	for _, s := range subs {
		if s.DesignerID == a.ID {
			out = append(out, s)
		}
	}
	return out
}

// contestParty reports whether the actor is the contest owner or the
// submitting designer.
func contestParty(a Actor, sub Submission, ct Contest) bool {
	return a.ID == ct.OwnerID || a.ID == sub.DesignerID
}

// GET /api/submissions/:id — submission with assets and comment thread
func GetSubmission(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		id, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		sub, err := getSubmission(ctx, db, id)
		if err != nil {
			c.JSON(404, gin.H{"error": "submission not found"})
			return
		}
		ct, err := getContest(ctx, db, sub.ContestID, false)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		if !contestParty(a, sub, ct) {
			c.JSON(403, gin.H{"error": "not a party to this submission"})
			return
		}

		assets := []Asset{}
		rows, err := db.Query(ctx, `
			SELECT id, submission_id, url, file_name, file_size, content_type, width, height
			FROM assets WHERE submission_id=$1 ORDER BY id ASC`, id)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		for rows.Next() {
			var as Asset
			if err := rows.Scan(&as.ID, &as.SubmissionID, &as.URL, &as.FileName,
				&as.FileSize, &as.ContentType, &as.Width, &as.Height); err != nil {
				rows.Close()
				c.JSON(500, gin.H{"error": "scan"})
				return
			}
			assets = append(assets, as)
		}
		rows.Close()

		comments, err := listComments(ctx, db, id)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		c.JSON(200, gin.H{"submission": sub, "assets": assets, "comments": comments})
	}
}

func listComments(ctx context.Context, q dbtx, submissionID int) ([]Comment, error) {
	rows, err := q.Query(ctx, `
		SELECT id, submission_id, author_id, body,
		       to_char(created_at, 'YYYY-MM-DD HH24:MI:SS')
		FROM comments WHERE submission_id=$1 ORDER BY id ASC`, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		var cm Comment
		if err := rows.Scan(&cm.ID, &cm.SubmissionID, &cm.AuthorID, &cm.Body, &cm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, nil
}

// GET /api/submissions/:id/comments
func ListSubmissionComments(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		id, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		sub, err := getSubmission(ctx, db, id)
		if err != nil {
			c.JSON(404, gin.H{"error": "submission not found"})
			return
		}
		ct, err := getContest(ctx, db, sub.ContestID, false)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		if !contestParty(a, sub, ct) {
			c.JSON(403, gin.H{"error": "not a party to this submission"})
			return
		}

		out, err := listComments(ctx, db, id)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		c.JSON(200, out)
	}
}

// POST /api/submissions/:id/comments  {body}
func AddSubmissionComment(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		id, _ := strconv.Atoi(c.Param("id"))
		var req struct {
			Body string `json:"body"`
		}
		if err := c.BindJSON(&req); err != nil || req.Body == "" {
			c.JSON(400, gin.H{"error": "comment body is required"})
			return
		}

		ctx := context.Background()
		sub, err := getSubmission(ctx, db, id)
		if err != nil {
			c.JSON(404, gin.H{"error": "submission not found"})
			return
		}
		ct, err := getContest(ctx, db, sub.ContestID, false)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		if !contestParty(a, sub, ct) {
			c.JSON(403, gin.H{"error": "not a party to this submission"})
			return
		}

		var cm Comment
		err = db.QueryRow(ctx, `
			INSERT INTO comments(submission_id, author_id, body) VALUES ($1,$2,$3)
			RETURNING id, submission_id, author_id, body, to_char(created_at, 'YYYY-MM-DD HH24:MI:SS')`,
			id, a.ID, req.Body,
		).Scan(&cm.ID, &cm.SubmissionID, &cm.AuthorID, &cm.Body, &cm.CreatedAt)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		c.JSON(200, cm)
	}
}
