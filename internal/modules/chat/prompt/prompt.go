package prompt

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/flora-backend/internal/domain/chat"
)

//go:embed personas.yaml
var personasFS embed.FS

// Input is everything the composer reads. It is never modified.
type Input struct {
	Role          chat.Role
	Mode          chat.Mode
	CourseContext *chat.CourseContext
}

type persona struct {
	Name       string `yaml:"name"`
	Intro      string `yaml:"intro"`
	Structure  string `yaml:"structure"`
	Tone       string `yaml:"tone"`
	Adaptivity string `yaml:"adaptivity"`
	Format     string `yaml:"format"`
	Focus      string `yaml:"focus"`
}

type yamlPersonaFile struct {
	Version  int                `yaml:"version"`
	Personas map[string]persona `yaml:"personas"`
	Designer string             `yaml:"designer"`
}

type library struct {
	student    string
	educator   string
	researcher string
	designer   *template.Template
}

var (
	embeddedOnce sync.Once
	embeddedLib  *library
	embeddedErr  error

	activeMu sync.RWMutex
	active   *library
)

// Validate reports whether the embedded persona document loads.
func Validate() error {
	_, err := embeddedLibrary()
	return err
}

// LoadPersonas installs the persona document at path for every later Compose.
// An empty path selects the embedded document. On error the previously active
// document stays in place.
func LoadPersonas(path string) error {
	var (
		lib *library
		err error
	)
	if path = strings.TrimSpace(path); path == "" {
		lib, err = embeddedLibrary()
	} else {
		var data []byte
		if data, err = os.ReadFile(path); err != nil {
			return fmt.Errorf("read personas %s: %w", path, err)
		}
		if lib, err = parseLibrary(data); err != nil {
			return fmt.Errorf("personas %s: %w", path, err)
		}
	}
	if err != nil {
		return err
	}
	activeMu.Lock()
	active = lib
	activeMu.Unlock()
	return nil
}

func embeddedLibrary() (*library, error) {
	embeddedOnce.Do(func() {
		data, err := personasFS.ReadFile("personas.yaml")
		if err != nil {
			embeddedErr = err
			return
		}
		embeddedLib, embeddedErr = parseLibrary(data)
	})
	return embeddedLib, embeddedErr
}

func currentLibrary() *library {
	activeMu.RLock()
	lib := active
	activeMu.RUnlock()
	if lib != nil {
		return lib
	}
	lib, err := embeddedLibrary()
	if err != nil {
		// personas.yaml is compiled in, so this only fires on a broken build
		panic(fmt.Sprintf("prompt: embedded personas: %v", err))
	}
	return lib
}

func parseLibrary(data []byte) (*library, error) {
	var doc yamlPersonaFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse personas: %w", err)
	}
	lib := &library{}
	for role, dst := range map[chat.Role]*string{
		chat.RoleStudent:    &lib.student,
		chat.RoleEducator:   &lib.educator,
		chat.RoleResearcher: &lib.researcher,
	} {
		p, ok := doc.Personas[string(role)]
		if !ok || strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("persona %q missing", role)
		}
		*dst = renderPersona(p)
	}
	if strings.TrimSpace(doc.Designer) == "" {
		return nil, errors.New("designer template missing")
	}
	t, err := template.New("designer").Option("missingkey=zero").Parse(doc.Designer)
	if err != nil {
		return nil, fmt.Errorf("designer template parse: %w", err)
	}
	lib.designer = t
	return lib, nil
}

func renderPersona(p persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are \"%s\", %s\n\n", strings.TrimSpace(p.Name), strings.TrimSpace(p.Intro))
	b.WriteString("RESPONSE GUIDELINES:\n")
	fmt.Fprintf(&b, "- STRUCTURE: %s\n", strings.TrimSpace(p.Structure))
	fmt.Fprintf(&b, "- TONE: %s\n", strings.TrimSpace(p.Tone))
	fmt.Fprintf(&b, "- ADAPTIVITY: %s\n", strings.TrimSpace(p.Adaptivity))
	fmt.Fprintf(&b, "- FORMAT: %s\n", strings.TrimSpace(p.Format))
	fmt.Fprintf(&b, "- FOCUS: %s", strings.TrimSpace(p.Focus))
	return b.String()
}

// Compose builds the system instruction for one conversation turn.
func Compose(in Input) string {
	role := chat.ParseRole(string(in.Role))
	lib := currentLibrary()

	system := ""
	if in.Mode == chat.ModeDesigner && role == chat.RoleEducator {
		system = lib.renderDesigner(in.CourseContext)
	}
	if system == "" {
		system = basePersona(lib, role)
	}

	return system + groundingClause(in.CourseContext)
}

func basePersona(lib *library, role chat.Role) string {
	switch role {
	case chat.RoleEducator:
		return lib.educator
	case chat.RoleResearcher:
		return lib.researcher
	default:
		return lib.student
	}
}

func (l *library) renderDesigner(cc *chat.CourseContext) string {
	data := struct {
		Title       string
		Description string
	}{}
	if cc != nil {
		data.Title = strings.TrimSpace(cc.Title)
		data.Description = strings.TrimSpace(cc.Description)
	}
	var b strings.Builder
	if err := l.designer.Execute(&b, data); err != nil {
		return ""
	}
	return strings.TrimSpace(b.String())
}

func groundingClause(cc *chat.CourseContext) string {
	if cc == nil || strings.TrimSpace(cc.Title) == "" {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n\nCURRENT CONTEXT: You are currently assisting the user within the course \"%s\".", strings.TrimSpace(cc.Title))
	if len(cc.Topics) > 0 {
		fmt.Fprintf(&b, " Focus your answers specifically on the topics: %s.", strings.Join(cc.Topics, ", "))
	}
	return b.String()
}
