// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/warden/lib/netutil"
	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/messaging"
)

// sendImage uploads an image from an http(s) URL or a local file to the
// homeserver's media store and posts it as an m.image message.
func (b *Bot) sendImage(ctx context.Context, roomID ref.RoomID, source string) error {
	data, contentType, name, err := b.fetchImage(ctx, source)
	if err != nil {
		return err
	}

	mxcURI, err := b.session.UploadMedia(ctx, contentType, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("uploading image: %w", err)
	}

	_, err = b.session.SendMessage(ctx, roomID, messaging.ImageMessageContent{
		MsgType: "m.image",
		Body:    name,
		URL:     mxcURI,
		Info: &messaging.ImageInfo{
			MimeType: contentType,
			Size:     int64(len(data)),
		},
	})
	if err != nil {
		return fmt.Errorf("posting image: %w", err)
	}
	return nil
}

func (b *Bot) fetchImage(ctx context.Context, source string) (data []byte, contentType, name string, err error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, "", "", fmt.Errorf("building image request: %w", err)
		}
		response, err := b.httpClient.Do(request)
		if err != nil {
			return nil, "", "", fmt.Errorf("fetching image: %w", err)
		}
		defer response.Body.Close()
		if response.StatusCode != http.StatusOK {
			return nil, "", "", fmt.Errorf("fetching image: status %d", response.StatusCode)
		}
		data, err = netutil.ReadResponse(response.Body)
		if err != nil {
			return nil, "", "", fmt.Errorf("reading image body: %w", err)
		}
		contentType = response.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}
		name = path.Base(request.URL.Path)
		if name == "/" || name == "." {
			name = "image"
		}
		return data, contentType, name, nil
	}

	data, err = os.ReadFile(source)
	if err != nil {
		return nil, "", "", fmt.Errorf("reading image file: %w", err)
	}
	return data, http.DetectContentType(data), filepath.Base(source), nil
}
