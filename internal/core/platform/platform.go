// Package platform defines the closed set of supported content sources.
package platform

// Platform is one supported content source, identified by its short code.
type Platform struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var supported = []Platform{
	{Code: "xhs", Name: "Xiaohongshu"},
	{Code: "dy", Name: "Douyin"},
	{Code: "ks", Name: "Kuaishou"},
	{Code: "bili", Name: "Bilibili"},
	{Code: "wb", Name: "Weibo"},
	{Code: "tieba", Name: "Tieba"},
	{Code: "zhihu", Name: "Zhihu"},
}

// List returns all supported platforms.
func List() []Platform {
	out := make([]Platform, len(supported))
	copy(out, supported)
	return out
}

// Codes returns the supported platform codes.
func Codes() []string {
	codes := make([]string, len(supported))
	for i, p := range supported {
		codes[i] = p.Code
	}
	return codes
}

// Supported reports whether code is a known platform.
func Supported(code string) bool {
	for _, p := range supported {
		if p.Code == code {
			return true
		}
	}
	return false
}
