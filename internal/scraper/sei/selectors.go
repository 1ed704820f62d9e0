package sei

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Selectors is the typed locator table for the portal's screens. The
// expressions come from an external JSON document keyed by screen
// (login, tela_inicio, interno); keys the struct does not know about are
// kept in Overrides so screen-specific additions need no code change.
type Selectors struct {
	Login    LoginSelectors
	Home     HomeSelectors
	Internal InternalSelectors

	// Overrides holds screen → key → expression for anything beyond the
	// named fields.
	Overrides map[string]map[string]string
}

// LoginSelectors locate the credential form. All optional: absent selectors
// skip automated login, they never fail it.
type LoginSelectors struct {
	Username string
	Password string
	Submit   string
}

// HomeSelectors locate the post-login home screen controls.
type HomeSelectors struct {
	BlockMenu    string
	InternalMenu string
	DismissPopup string
}

// InternalSelectors locate the block listing, its pagination, the process
// entries and the document tree.
type InternalSelectors struct {
	TableRows       string
	NumberLink      string
	DescriptionCell string
	NextPage        string
	RowNumber       string
	Process         string
	Documents       string
	ExpandIcon      string
	TreeFrameID     string
	TreeFrameName   string
}

// Structural defaults for the parts of the portal that have been stable
// across versions: the document tree frame and its icons.
const (
	defaultTreeFrameID   = "ifrArvore"
	defaultTreeFrameName = "arvore"
	defaultExpandIcon    = `//img[contains(@src,'pasta_fechada') or contains(@src,'mais')]`
	defaultDocuments     = `//a[contains(@class,'infraArvoreNo')]//span`
	defaultNumberLink    = `.//a`
)

// LoadSelectors reads the locator table from a JSON file.
func LoadSelectors(path string) (*Selectors, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read selector table %s: %w", path, err)
	}
	return selectorsFromViper(v), nil
}

func selectorsFromViper(v *viper.Viper) *Selectors {
	s := &Selectors{
		Login: LoginSelectors{
			Username: v.GetString("login.username"),
			Password: v.GetString("login.password"),
			Submit:   v.GetString("login.acessar"),
		},
		Home: HomeSelectors{
			BlockMenu:    v.GetString("tela_inicio.bloco"),
			InternalMenu: v.GetString("tela_inicio.interno"),
			DismissPopup: v.GetString("tela_inicio.remove_pup_pop"),
		},
		Internal: InternalSelectors{
			TableRows:       v.GetString("interno.tabela_blocos_rows"),
			NumberLink:      v.GetString("interno.numero_interno_link"),
			DescriptionCell: v.GetString("interno.descricao_cell"),
			NextPage:        v.GetString("interno.paginacao_proxima"),
			RowNumber:       v.GetString("interno.numero_interno"),
			Process:         v.GetString("interno.processo"),
			Documents:       v.GetString("interno.documentos_do_processo"),
			ExpandIcon:      v.GetString("interno.plus"),
			TreeFrameID:     v.GetString("interno.arvore_frame_id"),
			TreeFrameName:   v.GetString("interno.arvore_frame_name"),
		},
		Overrides: map[string]map[string]string{},
	}
	s.applyDefaults()

	known := map[string]map[string]bool{
		"login":       {"username": true, "password": true, "acessar": true},
		"tela_inicio": {"bloco": true, "interno": true, "remove_pup_pop": true},
		"interno": {
			"tabela_blocos_rows": true, "numero_interno_link": true,
			"descricao_cell": true, "paginacao_proxima": true,
			"numero_interno": true, "processo": true,
			"documentos_do_processo": true, "plus": true,
			"arvore_frame_id": true, "arvore_frame_name": true,
		},
	}
	for screen, raw := range v.AllSettings() {
		section, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for key, val := range section {
			if known[screen][key] {
				continue
			}
			expr, ok := val.(string)
			if !ok {
				continue
			}
			if s.Overrides[screen] == nil {
				s.Overrides[screen] = map[string]string{}
			}
			s.Overrides[screen][key] = expr
		}
	}
	return s
}

func (s *Selectors) applyDefaults() {
	if s.Internal.NumberLink == "" {
		s.Internal.NumberLink = defaultNumberLink
	}
	if s.Internal.Documents == "" {
		s.Internal.Documents = defaultDocuments
	}
	if s.Internal.ExpandIcon == "" {
		s.Internal.ExpandIcon = defaultExpandIcon
	}
	if s.Internal.TreeFrameID == "" {
		s.Internal.TreeFrameID = defaultTreeFrameID
	}
	if s.Internal.TreeFrameName == "" {
		s.Internal.TreeFrameName = defaultTreeFrameName
	}
}

// Override returns a screen-specific expression that has no named field.
func (s *Selectors) Override(screen, key string) string {
	if s.Overrides == nil {
		return ""
	}
	return s.Overrides[screen][key]
}

// Validate checks the locators navigation cannot work without. Called at
// session start so a broken table fails fast, before the browser moves.
func (s *Selectors) Validate() error {
	var missing []string
	if s.Home.BlockMenu == "" {
		missing = append(missing, "tela_inicio.bloco")
	}
	if s.Home.InternalMenu == "" {
		missing = append(missing, "tela_inicio.interno")
	}
	if s.Internal.Process == "" {
		missing = append(missing, "interno.processo")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigurationMissing, strings.Join(missing, ", "))
	}
	return nil
}
