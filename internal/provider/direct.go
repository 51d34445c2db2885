package provider

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"playernix/internal/core"
)

const directHeaderTimeout = 15 * time.Second

var audioExtensions = map[string]string{
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".wav":  "audio/wav",
	".weba": "audio/webm",
}

// Direct plays uploaded attachments and links that no platform provider
// claims. Links are checked with yt-dlp's generic extractor.
type Direct struct {
	base
	client  *http.Client
	ext     Extractor
	allowed string
}

// NewDirect creates the direct provider. allowed is the accepted attachment
// content type; "audio/*" accepts any audio type.
func NewDirect(allowed string, ext Extractor, opts Options, logger *zap.Logger) *Direct {
	if allowed == "" {
		allowed = core.DefaultAllowedContentType
	}
	return &Direct{
		base: newBase("direct", core.SourceDirect, opts, logger),
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: directHeaderTimeout,
			},
		},
		ext:     ext,
		allowed: allowed,
	}
}

func (p *Direct) Resolve(ctx context.Context, q core.Query) (core.Result, error) {
	if q.Attachment != nil {
		return p.resolveAttachment(q)
	}
	if !q.IsDirectURL {
		return core.EmptyResult(), core.NewProviderError(core.ProviderMalformed, p.name, q.Raw, errors.New("not a link"))
	}

	ctx, cancel, err := p.begin(ctx, q.Raw)
	if err != nil {
		return core.EmptyResult(), err
	}
	defer cancel()

	if p.ext != nil {
		entry, err := p.ext.Metadata(ctx, q.Text)
		if err == nil {
			if entry.URL == "" {
				entry.URL = q.Text
			}
			if t, terr := entryTrack(*entry, core.SourceDirect, nil); terr == nil {
				return core.SingleResult(t), nil
			}
		} else {
			p.logger.Debug("Generic extractor failed", zap.String("url", q.Text), zap.Error(err))
		}
	}

	// plain audio files still play without metadata
	if name := fileName(q.Text); isAudioType(typeByExtension(path.Ext(name))) {
		t, err := core.NewTrack(core.Track{Title: name, URL: q.Text, Source: core.SourceDirect})
		if err == nil {
			return core.SingleResult(t), nil
		}
	}

	return core.EmptyResult(), core.NewProviderError(core.ProviderNotFound, p.name, q.Raw, ctx.Err())
}

func (p *Direct) resolveAttachment(q core.Query) (core.Result, error) {
	a := q.Attachment
	contentType := AttachmentContentType(a)
	if !AcceptsContentType(p.allowed, contentType) {
		return core.EmptyResult(), core.NewProviderError(core.ProviderMalformed, p.name, a.Filename,
			fmt.Errorf("%w: %q", core.ErrUnsupportedAttachment, contentType))
	}

	title := a.Filename
	if title == "" {
		title = fileName(a.URL)
	}
	t, err := core.NewTrack(core.Track{
		Title:  title,
		URL:    a.URL,
		Source: core.SourceDirect,
	})
	if err != nil {
		return core.EmptyResult(), p.fail(core.ProviderMalformed, a.Filename, err)
	}
	return core.SingleResult(t), nil
}

// OpenStream fetches the file over HTTP. HTML pages are handed to yt-dlp.
func (p *Direct) OpenStream(ctx context.Context, t core.Track) (*core.Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, http.NoBody)
	if err != nil {
		return nil, core.NewStreamError(core.StreamUnavailable, p.name, t.URL, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, core.NewStreamError(core.StreamTransportFailure, p.name, t.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, core.NewStreamError(core.StreamUnavailable, p.name, t.URL,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	mediaType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(mediaType, "text/html") && p.ext != nil {
		_ = resp.Body.Close()
		return p.openExtractorStream(ctx, p.ext, t, MediaTypeArbitrary)
	}
	if mediaType == "" {
		mediaType = MediaTypeArbitrary
	}

	return &core.Stream{
		Body:      &transportReader{ReadCloser: resp.Body, provider: p.name, url: t.URL},
		MediaType: mediaType,
		Track:     t,
		Source:    p.source,
	}, nil
}

// AttachmentContentType returns the attachment's media type without
// parameters, guessing from the file name when none was sent.
func AttachmentContentType(a *core.Attachment) string {
	if a == nil {
		return ""
	}
	if a.ContentType != "" {
		if mt, _, err := mime.ParseMediaType(a.ContentType); err == nil {
			return mt
		}
		return strings.ToLower(strings.TrimSpace(a.ContentType))
	}
	if mt, _, err := mime.ParseMediaType(typeByExtension(path.Ext(a.Filename))); err == nil {
		return mt
	}
	return ""
}

func typeByExtension(ext string) string {
	if t, ok := audioExtensions[strings.ToLower(ext)]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

// AcceptsContentType matches a content type against the configured one,
// where "audio/*" stands for any audio type.
func AcceptsContentType(allowed, contentType string) bool {
	allowed = strings.ToLower(strings.TrimSpace(allowed))
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "" {
		return false
	}
	if prefix, ok := strings.CutSuffix(allowed, "/*"); ok {
		return strings.HasPrefix(contentType, prefix+"/")
	}
	return contentType == allowed
}

func isAudioType(contentType string) bool {
	return strings.HasPrefix(contentType, "audio/")
}

func fileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}
