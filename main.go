package main

import (
	"log"
	"os"

	"contest-platform/internal"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}

	db := internal.MustDB(dbURL)
	defer db.Close()
	internal.MustInitSchema(db)

	r := gin.Default()

	api := r.Group("/api")
	{
		api.POST("/auth/register", internal.Register(db))
		api.POST("/auth/login", internal.Login(db, secret))
		api.POST("/auth/logout", internal.Logout())
		api.GET("/me", internal.Auth(secret), internal.Me(db))

		// browsing, open to both roles
		api.GET("/contests", internal.Auth(secret), internal.ListContests(db))
		api.GET("/contests/:id", internal.Auth(secret), internal.GetContest(db))
		api.GET("/submissions/:id", internal.Auth(secret), internal.GetSubmission(db))
		api.GET("/submissions/:id/comments", internal.Auth(secret), internal.ListSubmissionComments(db))
		api.POST("/submissions/:id/comments", internal.Auth(secret), internal.AddSubmissionComment(db))
		api.GET("/assets/:id/download", internal.Auth(secret), internal.DownloadAsset(db))

		// business owner side: contest lifecycle + review
		owner := api.Group("", internal.Auth(secret), internal.RequireRole(internal.RoleUser))
		{
			owner.POST("/contests", internal.CreateContest(db))
			owner.PUT("/contests/:id", internal.UpdateContest(db))
			owner.POST("/contests/:id/publish", internal.PublishContest(db))
			owner.POST("/contests/:id/advance", internal.AdvanceRound(db))
			owner.POST("/contests/:id/cancel", internal.CancelContest(db))
			owner.POST("/contests/:id/winner", internal.SelectWinner(db))
			owner.GET("/my/contests", internal.MyContests(db))

			owner.POST("/submissions/:id/accept", internal.AcceptSubmission(db))
			owner.POST("/submissions/:id/pass", internal.PassSubmission(db))
			owner.POST("/submissions/:id/modification", internal.EnableModification(db))
		}

		// designer side
		designer := api.Group("", internal.Auth(secret), internal.RequireRole(internal.RoleDesigner))
		{
			designer.POST("/contests/:id/submissions", internal.CreateSubmission(db, uploadDir))
			designer.DELETE("/submissions/:id", internal.DeleteSubmission(db))
			designer.GET("/my/submissions", internal.MySubmissions(db))
		}
	}

	log.Printf("Listening on :%s", port)
	_ = r.Run(":" + port)
}
