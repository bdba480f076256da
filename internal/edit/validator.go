package edit

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Instruction is one untrusted, model-proposed edit as it arrives off the
// wire: a file (path or bare name), a position spec string, and content.
type Instruction struct {
	File     string `json:"file"`
	Position string `json:"position"`
	Content  string `json:"content"`
}

// ValidatedEdit is the resolution of one Instruction against the vault.
// A non-nil Err marks the edit rejected; it is still reported to the caller
// so batch failures can be summarized, and it is skipped by the Engine.
type ValidatedEdit struct {
	Instruction  Instruction
	Position     Position
	ResolvedPath string
	Current      string
	New          string
	IsNewFile    bool
	Err          error
}

// Repository is the slice of the vault the validator and engine need.
type Repository interface {
	Resolve(nameOrPath string) (string, bool)
	Read(path string) (string, error)
	Write(path, content string) error
	Create(path, content string) error
	Delete(path string) error
	Exists(path string) bool
	IsExcluded(path string) bool
}

// Validator resolves edit instructions into ValidatedEdits.
type Validator struct {
	repo Repository
	log  *zap.Logger
}

// NewValidator creates a Validator.
func NewValidator(repo Repository, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{repo: repo, log: log}
}

// Validate resolves each instruction independently, order-preserving. One
// bad instruction never blocks the others.
func (v *Validator) Validate(instructions []Instruction) []ValidatedEdit {
	out := make([]ValidatedEdit, 0, len(instructions))
	for _, in := range instructions {
		out = append(out, v.validateOne(in))
	}
	return out
}

func (v *Validator) validateOne(in Instruction) ValidatedEdit {
	ve := ValidatedEdit{Instruction: in}

	pos, err := ParsePosition(in.Position)
	if err != nil {
		ve.Err = err
		return ve
	}
	ve.Position = pos

	if pos.Kind == KindCreate {
		return v.validateCreate(ve)
	}

	path, ok := v.repo.Resolve(in.File)
	if !ok {
		ve.Err = fmt.Errorf("file not found: %s", in.File)
		return ve
	}
	ve.ResolvedPath = path

	if v.repo.IsExcluded(path) {
		ve.Err = fmt.Errorf("%s is in an excluded folder and cannot be edited", path)
		return ve
	}

	current, err := v.repo.Read(path)
	if err != nil {
		ve.Err = fmt.Errorf("read %s: %w", path, err)
		return ve
	}
	ve.Current = current

	newContent, err := ApplyPosition(current, pos, in.Content)
	if err != nil {
		ve.Err = err
		return ve
	}
	ve.New = newContent

	v.log.Debug("edit validated",
		zap.String("file", in.File),
		zap.String("path", path),
		zap.String("position", in.Position))
	return ve
}

// validateCreate checks the note-creation rules: markdown extension, no
// collision with an existing note, not inside an excluded folder.
func (v *Validator) validateCreate(ve ValidatedEdit) ValidatedEdit {
	path := ve.Instruction.File
	if !strings.HasSuffix(strings.ToLower(path), ".md") {
		ve.Err = fmt.Errorf("new notes must use the .md extension: %s", path)
		return ve
	}
	if v.repo.IsExcluded(path) {
		ve.Err = fmt.Errorf("%s is in an excluded folder and cannot be created", path)
		return ve
	}
	if v.repo.Exists(path) {
		ve.Err = fmt.Errorf("note already exists: %s", path)
		return ve
	}
	ve.ResolvedPath = path
	ve.IsNewFile = true
	ve.New = ve.Instruction.Content
	return ve
}
