package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/watchparty/lib/logger/sl"
)

const streamUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/88.0.4324.190 Safari/537.36"

var fileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// StreamController pipes Google Drive file bytes to the browser. It is a
// stateless proxy with Range passthrough and touches no room state. Drive
// needs a cookie jar across redirects, hence the dedicated client.
type StreamController struct {
	client  *http.Client
	baseURL string
	log     *slog.Logger
}

func NewStreamController(log *slog.Logger) *StreamController {
	if log == nil {
		log = slog.Default()
	}

	jar, _ := cookiejar.New(nil)

	return &StreamController{
		client:  &http.Client{Jar: jar},
		baseURL: "https://docs.google.com/uc?export=download",
		log:     log,
	}
}

func (c *StreamController) Stream(ctx *gin.Context) {
	const op = "api.stream"

	fileID := ctx.Param("fileId")
	if !fileIDPattern.MatchString(fileID) {
		ctx.String(http.StatusBadRequest, "Invalid file ID format.")
		return
	}

	driveURL := c.baseURL + "&id=" + fileID

	req, err := http.NewRequestWithContext(ctx.Request.Context(), http.MethodGet, driveURL, nil)
	if err != nil {
		ctx.String(http.StatusInternalServerError, "Failed to build upstream request.")
		return
	}
	req.Header.Set("User-Agent", streamUserAgent)
	if rng := ctx.GetHeader("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("drive streaming failed", slog.String("op", op), sl.Err(err))
		ctx.String(http.StatusBadGateway, "Failed to stream file from Google Drive.")
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, value := range values {
			ctx.Writer.Header().Add(key, value)
		}
	}
	ctx.Status(resp.StatusCode)

	if _, err := io.Copy(ctx.Writer, resp.Body); err != nil {
		c.log.Debug("drive stream interrupted", slog.String("op", op), sl.Err(err))
	}
}
