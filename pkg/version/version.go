package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

// Valores padrão (sobrescritos por ldflags ou por build info)
var (
	Version   = "0.0.0-dev"
	Commit    = ""
	BuildTime = ""
)

// ReleaseURL aponta para a última release publicada.
var ReleaseURL = "https://api.github.com/repos/diillson/pnad-income-go/releases/latest"

// populateFromBuildInfo preenche Commit, BuildTime e Version a partir do
// build info quando o binário não foi gerado com ldflags.
func populateFromBuildInfo() {
	if Version != "" && Version != "0.0.0-dev" {
		return
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return
	}

	settings := make(map[string]string, len(bi.Settings))
	for _, s := range bi.Settings {
		settings[s.Key] = s.Value
	}

	if rev := settings["vcs.revision"]; Commit == "" && len(rev) >= 7 {
		Commit = rev[:7]
	}
	if t := settings["vcs.time"]; BuildTime == "" && t != "" {
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			BuildTime = ts.UTC().Format("2006-01-02T15:04:05Z")
		}
	}
	if tag := settings["vcs.tag"]; tag != "" {
		Version = strings.TrimPrefix(tag, "v")
		if strings.EqualFold(settings["vcs.modified"], "true") {
			Version += "-dirty"
		}
	}
}

func init() {
	populateFromBuildInfo()
}

// CheckLatestVersion avisa quando há uma release mais nova que currentVersion.
// Falhas de rede são ignoradas.
func CheckLatestVersion(currentVersion string) {
	if strings.HasSuffix(currentVersion, "-dev") {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	latest, err := LatestRelease(ctx, http.DefaultClient, ReleaseURL)
	if err != nil {
		return
	}
	if Newer(latest, currentVersion) {
		pterm.Warning.Println(fmt.Sprintf("A new version of pnad-income is available: %s", latest))
		pterm.Info.Println("Please update using: go install github.com/diillson/pnad-income-go/cmd/pnad-income@latest")
	}
}

// LatestRelease consulta a API de releases e devolve a tag sem o prefixo "v".
func LatestRelease(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release lookup: unexpected status %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("release lookup: %w", err)
	}
	return strings.TrimPrefix(release.TagName, "v"), nil
}

// Newer compara versões "major.minor.patch" numericamente. Sufixos como
// "-dirty" são ignorados.
func Newer(latest, current string) bool {
	l, c := parts(latest), parts(current)
	for i := 0; i < 3; i++ {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

func parts(v string) [3]int {
	var out [3]int
	v = strings.TrimPrefix(v, "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	for i, p := range strings.SplitN(v, ".", 3) {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		out[i] = n
	}
	return out
}

// FormatVersion retorna a versão formatada com commit e build time.
// Ex.: "1.2.3 (commit: abc1234, built at: 2025-10-23T10:20:30Z)"
func FormatVersion() string {
	ver := Version
	if ver == "" {
		ver = "0.0.0-dev"
	}

	switch {
	case Commit == "" && BuildTime == "":
		return fmt.Sprintf("%s (development)", ver)
	case Commit == "":
		return fmt.Sprintf("%s (commit: development, built at: %s)", ver, BuildTime)
	case BuildTime != "":
		return fmt.Sprintf("%s (commit: %s, built at: %s)", ver, Commit, BuildTime)
	default:
		return fmt.Sprintf("%s (commit: %s)", ver, Commit)
	}
}
