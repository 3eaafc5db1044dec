package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ----------------------------------------------------------------------
// Normalised records handed to the plugin
// ----------------------------------------------------------------------

// Station is one radio station as shown in a station listing.
type Station struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Thumbnail string `json:"thumbnail" yaml:"thumbnail"`
	Listeners string `json:"listeners" yaml:"listeners"` // integer as string
	Comment   string `json:"comment" yaml:"comment"`
	Genre     string `json:"genre" yaml:"genre"`
	Web       string `json:"web" yaml:"web"`
}

// Genre is a music style stations can be filtered by.
type Genre struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// Region is a Czech region stations can be filtered by.
type Region struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// Stream is one format/bitrate variant a station broadcasts.
type Stream struct {
	Format  string `json:"format" yaml:"format"`
	Bitrate string `json:"bitrate" yaml:"bitrate"` // kbps
}

// ----------------------------------------------------------------------
// Raw play.cz response shapes
// ----------------------------------------------------------------------

// StationsResponse is returned by getRadios and getTopRadios.
type StationsResponse struct {
	Data StationMap `json:"data"`
}

// StationMap is the getRadios data map, keyed by internal station id, in response order.
type StationMap []KeyedStation

// KeyedStation pairs a RawStation with its key in the data map.
type KeyedStation struct {
	Key     string
	Station RawStation
}

func (m *StationMap) UnmarshalJSON(data []byte) error {
	var obj OrderedObject
	if err := obj.UnmarshalJSON(data); err != nil {
		return err
	}
	out := make(StationMap, 0, len(obj))
	for _, kv := range obj {
		var st RawStation
		if err := json.Unmarshal(kv.Value, &st); err != nil {
			return fmt.Errorf("station %q: %w", kv.Key, err)
		}
		out = append(out, KeyedStation{Key: kv.Key, Station: st})
	}
	*m = out
	return nil
}

// RawStation is a single value of the getRadios data map.
type RawStation struct {
	Shortcut    *FlexString  `json:"shortcut"`
	Title       string       `json:"title"`
	LogoMedium  *string      `json:"logoimg_m"`
	Logo        *string      `json:"logo"`
	Listeners   FlexString   `json:"listeners"`
	Description string       `json:"description"`
	Style       FlexList     `json:"style"`
	StyleTitle  FlexList     `json:"style_title"`
	RadioInfo   RawRadioInfo `json:"radio_info"`
}

// RawRadioInfo holds the station's web links. The API sends [] instead of {}
// when a station has none.
type RawRadioInfo struct {
	Web1 string `json:"web1"`
}

func (r *RawRadioInfo) UnmarshalJSON(data []byte) error {
	if !isJSONObject(data) {
		*r = RawRadioInfo{}
		return nil
	}
	type plain RawRadioInfo
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = RawRadioInfo(p)
	return nil
}

// BasicInfoResponse is returned by getStyles and getRegions.
type BasicInfoResponse struct {
	Data []RawBasicInfo `json:"data"`
}

// RawBasicInfo is an {id, title} pair.
type RawBasicInfo struct {
	ID    FlexString `json:"id"`
	Title string     `json:"title"`
}

// StreamsResponse is returned by getAllStreams.
type StreamsResponse struct {
	Data struct {
		Streams StreamMap `json:"streams"`
	} `json:"data"`
}

// StreamMap maps a format to the bitrates it is offered in, in response order.
type StreamMap []FormatBitrates

// FormatBitrates is one member of a StreamMap.
type FormatBitrates struct {
	Format   string
	Bitrates FlexList
}

func (m *StreamMap) UnmarshalJSON(data []byte) error {
	var obj OrderedObject
	if err := obj.UnmarshalJSON(data); err != nil {
		return err
	}
	out := make(StreamMap, 0, len(obj))
	for _, kv := range obj {
		var bitrates FlexList
		if err := json.Unmarshal(kv.Value, &bitrates); err != nil {
			return fmt.Errorf("format %q: %w", kv.Key, err)
		}
		out = append(out, FormatBitrates{Format: kv.Key, Bitrates: bitrates})
	}
	*m = out
	return nil
}

// StreamResponse is returned by getStream.
type StreamResponse struct {
	Data struct {
		Stream struct {
			Pubpoint string `json:"pubpoint"`
		} `json:"stream"`
	} `json:"data"`
}

// ----------------------------------------------------------------------
// Lenient JSON helpers
// ----------------------------------------------------------------------

// FlexString accepts a JSON string or number. null and booleans decode to "".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case 'n', 't', 'f':
		*f = ""
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*f = FlexString(n.String())
	}
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// FlexList accepts a JSON array of strings or numbers, an object whose values
// are used in order, or null/false for an empty list.
type FlexList []string

func (l *FlexList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isJSONObject(data) {
		var obj OrderedObject
		if err := obj.UnmarshalJSON(data); err != nil {
			return err
		}
		out := make(FlexList, 0, len(obj))
		for _, kv := range obj {
			var s FlexString
			if err := json.Unmarshal(kv.Value, &s); err != nil {
				return err
			}
			out = append(out, string(s))
		}
		*l = out
		return nil
	}
	if len(data) == 0 || data[0] != '[' {
		*l = nil
		return nil
	}
	var items []FlexString
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(FlexList, len(items))
	for i, s := range items {
		out[i] = string(s)
	}
	*l = out
	return nil
}

// First returns the first element, or "" for an empty list.
func (l FlexList) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

// KeyValue is one member of a JSON object.
type KeyValue struct {
	Key   string
	Value json.RawMessage
}

// OrderedObject is a JSON object decoded with its members in document order.
// null, false and empty arrays decode to an empty object; a non-empty array
// decodes with its indexes as keys.
type OrderedObject []KeyValue

func (o *OrderedObject) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*o = nil
		return nil
	}
	switch data[0] {
	case '{':
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(OrderedObject, len(items))
		for i, item := range items {
			out[i] = KeyValue{Key: strconv.Itoa(i), Value: item}
		}
		*o = out
		return nil
	case 'n', 'f':
		*o = nil
		return nil
	default:
		return fmt.Errorf("expected object, got %s", truncate(data, 32))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // '{'
		return err
	}
	var out OrderedObject
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		out = append(out, KeyValue{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil { // '}'
		return err
	}
	*o = out
	return nil
}

func isJSONObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

func truncate(data []byte, n int) string {
	s := string(data)
	if len(s) > n {
		return strings.TrimSpace(s[:n]) + "..."
	}
	return s
}
