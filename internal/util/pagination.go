package util

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page struct {
	Number int
	Size   int
}

func (p Page) Limit() int  { return p.Size }
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// ParsePage reads page and page_size from the query string.
func ParsePage(c *gin.Context) Page {
	number, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || number < 1 {
		number = 1
	}

	size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))
	if err != nil || size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	return Page{Number: number, Size: size}
}

type PageBody struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// PaginatedResponse writes {status, data: {count, next, previous, results}}.
func PaginatedResponse(c *gin.Context, page Page, count int64, results interface{}) {
	body := PageBody{Count: count, Results: results}

	if int64(page.Number*page.Size) < count {
		next := pageURL(c, page.Number+1, page.Size)
		body.Next = &next
	}
	if page.Number > 1 {
		prev := pageURL(c, page.Number-1, page.Size)
		body.Previous = &prev
	}

	c.JSON(http.StatusOK, Response{Status: "success", Data: body})
}

func pageURL(c *gin.Context, number, size int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	q := c.Request.URL.Query()
	q.Set("page", strconv.Itoa(number))
	q.Set("page_size", strconv.Itoa(size))

	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: q.Encode(),
	}
	return u.String()
}
