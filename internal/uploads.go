package internal

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type savedFile struct {
	url         string // storage path, served back through the download gateway
	name        string
	size        int64
	contentType string
}

// saveUploads writes each uploaded file under uploadDir with a random prefix
// so designers cannot clobber each other's files.
func saveUploads(c *gin.Context, files []*multipart.FileHeader, uploadDir string) ([]savedFile, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, err
	}

	out := make([]savedFile, 0, len(files))
	for _, f := range files {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		name := filepath.Base(f.Filename)
		dst := filepath.Join(uploadDir, hex.EncodeToString(buf)+"_"+name)
		if err := c.SaveUploadedFile(f, dst); err != nil {
			return nil, err
		}
		out = append(out, savedFile{
			url:         dst,
			name:        name,
			size:        f.Size,
			contentType: f.Header.Get("Content-Type"),
		})
	}
	return out, nil
}

// GET /api/assets/:id/download — unified gateway serving stored files
func DownloadAsset(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := strconv.Atoi(c.Param("id"))

		var path, fileName, contentType string
		err := db.QueryRow(context.Background(),
			"SELECT url, file_name, content_type FROM assets WHERE id=$1", id,
		).Scan(&path, &fileName, &contentType)
		if err != nil {
			c.JSON(404, gin.H{"error": "asset not found"})
			return
		}

		if contentType != "" {
			c.Header("Content-Type", contentType)
		}
		c.Header("Content-Disposition", `inline; filename="`+fileName+`"`)
		c.File(path)
	}
}
