package control

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"shuffler/internal/player"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeText = "text/plain; charset=utf-8"
)

// SkipRedirect is the body returned after a successful skip.
const SkipRedirect = `<html><head><meta http-equiv="refresh" content="0; url=/"/></head></html>`

// RenderStatus shows the current track and a link to skip it.
func RenderStatus(snap player.Snapshot) Response {
	var b strings.Builder
	b.WriteString("<html><head><title>shuffler</title></head><body>")
	switch {
	case !snap.HasTrack:
		b.WriteString("<p>No track yet</p>")
	case snap.Running:
		fmt.Fprintf(&b, "<p>Now playing: %s</p>", html.EscapeString(string(snap.Pick.Track)))
	default:
		fmt.Fprintf(&b, "<p>Last played: %s</p>", html.EscapeString(string(snap.Pick.Track)))
	}
	b.WriteString(`<p><a href="/skip">skip</a></p></body></html>`)
	return Response{Status: http.StatusOK, ContentType: contentTypeHTML, Body: b.String()}
}

// RenderSkip reports the outcome of a skip.
func RenderSkip(err error) Response {
	if err != nil {
		return Response{
			Status:      http.StatusOK,
			ContentType: contentTypeHTML,
			Body:        "<html><body><p>skip failed: " + html.EscapeString(err.Error()) + `</p><p><a href="/">back</a></p></body></html>`,
		}
	}
	return Response{Status: http.StatusOK, ContentType: contentTypeHTML, Body: SkipRedirect}
}

// RenderUnsupported answers unknown routes. With strict routing the reply is
// a 404; otherwise the permissive 200 "supported request" is kept.
func RenderUnsupported(strict bool) Response {
	if strict {
		return Response{Status: http.StatusNotFound, ContentType: contentTypeText, Body: "unsupported request"}
	}
	return Response{Status: http.StatusOK, ContentType: contentTypeText, Body: "supported request"}
}
