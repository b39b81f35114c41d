package portfolio

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// DecodeConfig decodifica o campo content da API de conteúdos (base64 com
// quebras de linha) e interpreta o JSON resultante.
func DecodeConfig(content string) (*RepoConfig, error) {
	clean := strings.NewReplacer("\n", "", "\r", "").Replace(content)
	raw, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, errors.Wrap(err, "decode base64 config")
	}
	var cfg RepoConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config json")
	}
	return &cfg, nil
}

// buildMetadata monta o item do portfólio a partir da configuração.
func buildMetadata(rawURL, username string, repo githubRepo, cfg *RepoConfig) RepoMetadata {
	md := RepoMetadata{
		Name:         repo.Name,
		URL:          repo.HTMLURL,
		PublicURL:    cfg.PublicURL,
		Info:         cfg.Info,
		Title:        cfg.Title,
		CustomConfig: cfg.CustomConfig,
	}
	if md.Title == "" {
		md.Title = repo.Name
	}
	if cfg.Thumbnail != "" {
		branch := cfg.Branch
		if branch == "" {
			branch = "main"
		}
		md.Thumbnail = strings.TrimRight(rawURL, "/") + "/" + username + "/" + repo.Name + "/" + branch + "/" + cfg.Thumbnail
	}
	return md
}
