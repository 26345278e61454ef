// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package trackerapi

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexInt unmarshals a JSON field that a Gazelle API may emit as either a
// number or a numeric string, depending on site and endpoint.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*f = FlexInt(parsed)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into FlexInt", string(data))
}

// TorrentLookupResponse is the decoded `response` field of a successful
// `action=torrent` call, reduced to what the generator needs: the file path
// used to build the output filename, and the numeric id used for the
// comment URL.
type TorrentLookupResponse struct {
	Torrent struct {
		ID       FlexInt `json:"id"`
		FilePath string  `json:"filePath"`
	} `json:"torrent"`
}

// DecodeTorrentLookup unmarshals resp.Response into a TorrentLookupResponse.
// Call only when resp.Status == "success".
func DecodeTorrentLookup(resp *AjaxResponse) (*TorrentLookupResponse, error) {
	var out TorrentLookupResponse
	if err := json.Unmarshal(resp.Response, &out); err != nil {
		return nil, fmt.Errorf("decode torrent lookup response: %w", err)
	}
	return &out, nil
}

// IsNotFound reports whether a failure response's error string is one of
// the two Gazelle strings meaning "no such torrent" rather than some other
// application failure.
func IsNotFound(errStr string) bool {
	return errStr == "bad hash parameter" || errStr == "bad parameters"
}
