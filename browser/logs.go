package browser

import (
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/network"
	"github.com/golang/glog"
	"github.com/mailru/easyjson"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/log"
)

// Info names the browser behind a session.
type Info struct {
	Name     string
	Version  string
	Platform string
}

func str(caps selenium.Capabilities, keys ...string) string {
	for _, k := range keys {
		if v, ok := caps[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// BrowserInfo reads the negotiated capabilities. W3C and legacy key names
// are both accepted.
func BrowserInfo(wd selenium.WebDriver) (Info, error) {
	caps, err := wd.Capabilities()
	if err != nil {
		return Info{}, err
	}
	return Info{
		Name:     str(caps, "browserName"),
		Version:  str(caps, "browserVersion", "version"),
		Platform: str(caps, "platformName", "platform"),
	}, nil
}

var levelRank = map[log.Level]int{
	log.All:     0,
	log.Debug:   1,
	log.Info:    2,
	log.Warning: 3,
	log.Severe:  4,
	log.Off:     5,
}

// Logs returns the entries of log typ at or above min.
func Logs(wd selenium.WebDriver, typ log.Type, min log.Level) ([]log.Message, error) {
	msgs, err := wd.Log(typ)
	if err != nil {
		return nil, fmt.Errorf("reading %s log: %w", typ, err)
	}
	var out []log.Message
	for _, m := range msgs {
		if levelRank[m.Level] >= levelRank[min] {
			out = append(out, m)
		}
	}
	return out, nil
}

// Response is one HTTP response observed by the browser.
type Response struct {
	URL      string
	Status   int64
	MimeType string
}

// perfEntry is the envelope chromedriver wraps each DevTools event in.
type perfEntry struct {
	Message json.RawMessage `json:"message"`
}

// NetworkResponses decodes the Network.responseReceived events of Chrome's
// performance log. The session needs goog:loggingPrefs performance=ALL.
// Entries that are not valid DevTools messages are skipped.
func NetworkResponses(wd selenium.WebDriver) ([]Response, error) {
	msgs, err := wd.Log(log.Performance)
	if err != nil {
		return nil, fmt.Errorf("reading performance log: %w", err)
	}
	var out []Response
	for _, m := range msgs {
		var entry perfEntry
		if err := json.Unmarshal([]byte(m.Message), &entry); err != nil {
			glog.V(2).Infof("browser: skipping performance entry: %v", err)
			continue
		}
		var msg cdproto.Message
		if err := easyjson.Unmarshal(entry.Message, &msg); err != nil {
			glog.V(2).Infof("browser: skipping devtools message: %v", err)
			continue
		}
		if msg.Method != cdproto.EventNetworkResponseReceived {
			continue
		}
		var ev network.EventResponseReceived
		if err := easyjson.Unmarshal(msg.Params, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", msg.Method, err)
		}
		if ev.Response == nil {
			continue
		}
		out = append(out, Response{URL: ev.Response.URL, Status: ev.Response.Status, MimeType: ev.Response.MimeType})
	}
	return out, nil
}
