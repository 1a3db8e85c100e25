package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rohankatakam/gitemails/internal/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// TokenSource names where the run's tokens came from
type TokenSource string

const (
	SourceFlag     TokenSource = "flag"
	SourceFile     TokenSource = "token-file"
	SourceEnv      TokenSource = "env"
	SourceKeychain TokenSource = "keychain"
	SourceConfig   TokenSource = "config"
	SourceNone     TokenSource = "none"
)

// Credentials is the on-disk credentials file
type Credentials struct {
	GitHubTokens []string `yaml:"github_tokens"`
}

// CredentialManager resolves GitHub tokens with a priority chain:
// flags → environment → keychain → credentials file → unauthenticated
type CredentialManager struct {
	keyring    *KeyringManager
	configPath string
	logger     *logrus.Logger
}

// NewCredentialManager creates a credential manager reading ~/.config/gitemails/credentials.yaml
func NewCredentialManager(logger *logrus.Logger) *CredentialManager {
	homeDir, _ := os.UserHomeDir()
	return &CredentialManager{
		keyring:    NewKeyringManager(logger),
		configPath: filepath.Join(homeDir, ".config", "gitemails", "credentials.yaml"),
		logger:     logger,
	}
}

// WithConfigPath overrides the credentials file location
func (cm *CredentialManager) WithConfigPath(path string) *CredentialManager {
	cm.configPath = path
	return cm
}

// Keyring exposes the keychain manager for login/logout
func (cm *CredentialManager) Keyring() *KeyringManager {
	return cm.keyring
}

// ResolveTokens returns the token pool for a run. flagToken and tokenFile are
// mutually exclusive on the command line; when both are empty the remaining
// sources are consulted in order. An empty pool means unauthenticated requests.
func (cm *CredentialManager) ResolveTokens(flagToken, tokenFile string) ([]string, TokenSource, error) {
	if flagToken != "" && tokenFile != "" {
		return nil, SourceNone, errors.ValidationErrorf("--token and --token-file are mutually exclusive")
	}

	if flagToken != "" {
		return []string{strings.TrimSpace(flagToken)}, SourceFlag, nil
	}

	if tokenFile != "" {
		tokens, err := LoadTokenFile(tokenFile)
		if err != nil {
			return nil, SourceNone, err
		}
		if len(tokens) == 0 {
			return nil, SourceNone, errors.ValidationErrorf("token file %s contains no tokens", tokenFile)
		}
		return tokens, SourceFile, nil
	}

	if list := os.Getenv("GITHUB_TOKENS"); list != "" {
		if tokens := splitTokens(strings.Split(list, ",")); len(tokens) > 0 {
			return tokens, SourceEnv, nil
		}
	}
	for _, envVar := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if token := strings.TrimSpace(os.Getenv(envVar)); token != "" {
			return []string{token}, SourceEnv, nil
		}
	}

	if cm.keyring.IsAvailable() {
		if token, err := cm.keyring.GetGitHubToken(); err == nil && token != "" {
			return []string{token}, SourceKeychain, nil
		}
	}

	if creds, err := cm.loadConfigFile(); err == nil {
		if tokens := splitTokens(creds.GitHubTokens); len(tokens) > 0 {
			return tokens, SourceConfig, nil
		}
	}

	return nil, SourceNone, nil
}

// LoadTokenFile reads one token per line, ignoring blank lines
func LoadTokenFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to read token file %s", path)
	}
	return splitTokens(strings.Split(string(data), "\n")), nil
}

func splitTokens(lines []string) []string {
	var tokens []string
	for _, line := range lines {
		if token := strings.TrimSpace(line); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// SaveToken stores a token in the keychain, falling back to the credentials file
func (cm *CredentialManager) SaveToken(token string) (TokenSource, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return SourceNone, errors.ValidationErrorf("github token cannot be empty")
	}

	if cm.keyring.IsAvailable() {
		if err := cm.keyring.SetGitHubToken(token); err != nil {
			return SourceNone, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
				"failed to save GitHub token to keychain")
		}
		return SourceKeychain, nil
	}

	creds, err := cm.loadConfigFile()
	if err != nil {
		creds = &Credentials{}
	}
	creds.GitHubTokens = append(creds.GitHubTokens, token)
	if err := cm.saveConfigFile(*creds); err != nil {
		return SourceNone, errors.FileSystemErrorf(err, "failed to write %s", cm.configPath)
	}
	return SourceConfig, nil
}

// DeleteTokens removes stored tokens from the keychain and the credentials file
func (cm *CredentialManager) DeleteTokens() error {
	if cm.keyring.IsAvailable() {
		if err := cm.keyring.DeleteGitHubToken(); err != nil {
			return err
		}
	}
	if err := os.Remove(cm.configPath); err != nil && !os.IsNotExist(err) {
		return errors.FileSystemErrorf(err, "failed to remove %s", cm.configPath)
	}
	return nil
}

func (cm *CredentialManager) loadConfigFile() (*Credentials, error) {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}

	return &creds, nil
}

func (cm *CredentialManager) saveConfigFile(creds Credentials) error {
	dir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}

	// user-only read/write
	return os.WriteFile(cm.configPath, data, 0600)
}

// ReadSecret reads a token from stdin without echoing when stdin is a terminal
func ReadSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		bytes, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	// piped input
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
