package portfolio

import "encoding/json"

// RepoMetadata é um item do portfólio.
type RepoMetadata struct {
	Name         string          `json:"name"`
	URL          string          `json:"url"`
	PublicURL    string          `json:"publicUrl"`
	Thumbnail    string          `json:"thumbnail,omitempty"`
	Info         string          `json:"info"`
	Title        string          `json:"title"`
	CustomConfig json.RawMessage `json:"customConfig,omitempty"`
}

// RepoConfig é o conteúdo do arquivo de configuração publicado no repositório.
type RepoConfig struct {
	Published    bool            `json:"published"`
	Title        string          `json:"title"`
	PublicURL    string          `json:"publicUrl"`
	Info         string          `json:"info"`
	Thumbnail    string          `json:"thumbnail"`
	Branch       string          `json:"branch"`
	CustomConfig json.RawMessage `json:"customConfig,omitempty"`
}

// githubRepo traz só os campos da listagem que a varredura usa.
type githubRepo struct {
	Name      string `json:"name"`
	HTMLURL   string `json:"html_url"`
	Fork      bool   `json:"fork"`
	Archived  bool   `json:"archived"`
	UpdatedAt string `json:"updated_at"`
}

type fileContent struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}
