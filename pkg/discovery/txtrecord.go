package discovery

import (
	"fmt"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeBrokerTXT creates TXT records for a broker announcement.
func EncodeBrokerTXT(info *BrokerInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	path := info.Path
	if path == "" {
		path = "/conn"
	}
	scheme := info.Scheme
	if scheme == "" {
		scheme = "http"
	}

	txt[TXTKeyPath] = path
	txt[TXTKeyScheme] = scheme

	if info.Version != "" {
		txt[TXTKeyVersion] = info.Version
	}
	if info.Name != "" {
		txt[TXTKeyName] = info.Name
	}

	return txt
}

// DecodeBrokerTXT parses TXT records from a broker announcement.
func DecodeBrokerTXT(txt TXTRecordMap) (*BrokerInfo, error) {
	info := &BrokerInfo{}

	var ok bool
	info.Path, ok = txt[TXTKeyPath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyPath)
	}
	if !strings.HasPrefix(info.Path, "/") {
		return nil, fmt.Errorf("%w: path must be absolute", ErrInvalidTXTRecord)
	}

	info.Scheme, ok = txt[TXTKeyScheme]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyScheme)
	}
	if info.Scheme != "http" && info.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrInvalidTXTRecord, info.Scheme)
	}

	info.Version = txt[TXTKeyVersion]
	info.Name = txt[TXTKeyName]

	return info, nil
}

// TXTRecordsToStrings converts a TXT record map to "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXT record map.
// Entries without an "=" are ignored.
func StringsToTXTRecords(records []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, r := range records {
		k, v, found := strings.Cut(r, "=")
		if !found {
			continue
		}
		txt[k] = v
	}
	return txt
}
