package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// addressFields are reported as ErrInvalidAddress, everything else as ErrInvalidRequest.
var addressFields = map[string]bool{
	"title":     true,
	"path":      true,
	"new_title": true,
	"new_path":  true,
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	kind := ErrInvalidRequest
	if addressFields[fe.Field()] {
		kind = ErrInvalidAddress
	}
	return &ValidationError{
		Field:   fe.Field(),
		Message: fmt.Sprintf("failed on the %q rule", fe.Tag()),
		Err:     kind,
	}
}

// NodeCreate represents a request to create a node. Title and/or Path must
// be set; see Resolve for how they combine.
type NodeCreate struct {
	Title    string     `json:"title,omitempty" validate:"omitempty,max=255,excludes=/"`
	Path     string     `json:"path,omitempty" validate:"omitempty,max=2048"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	Type     *NodeType  `json:"type,omitempty"`
	Status   NodeStatus `json:"status,omitempty" validate:"omitempty,oneof=active completed archived"`
	Order    *float64   `json:"order,omitempty"`
	Meta     string     `json:"meta,omitempty" validate:"omitempty,json"`
}

// Validate validates the create node request
func (r *NodeCreate) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.Type != nil && !r.Type.Valid() {
		return &ValidationError{Field: "type", Message: "unknown node type", Err: ErrInvalidRequest}
	}
	return nil
}

// Address resolves the node the request addresses.
func (r *NodeCreate) Address() (Address, error) {
	if err := r.Validate(); err != nil {
		return Address{}, err
	}
	return Resolve(r.Title, r.Path)
}

// NodeRead identifies exactly one existing node.
type NodeRead struct {
	Title string `json:"title,omitempty" form:"title" validate:"omitempty,max=255,excludes=/"`
	Path  string `json:"path,omitempty" form:"path" validate:"omitempty,max=2048"`
}

// Validate validates the read node request
func (r *NodeRead) Validate() error {
	return validateStruct(r)
}

// Address resolves the node the request addresses.
func (r *NodeRead) Address() (Address, error) {
	if err := r.Validate(); err != nil {
		return Address{}, err
	}
	return Resolve(r.Title, r.Path)
}

// ReadAt builds a NodeRead for a fully qualified "path/title" address.
func ReadAt(address string) NodeRead {
	return NodeRead{Path: address}
}

// NodeUpdate carries the current identity of a node (Title, Path) and the
// fields to change. Unset New* fields keep their current value. A non-nil
// empty NewPath moves the node to the root level.
type NodeUpdate struct {
	Title     string      `json:"title,omitempty" validate:"omitempty,max=255,excludes=/"`
	Path      string      `json:"path,omitempty" validate:"omitempty,max=2048"`
	NewTitle  *string     `json:"new_title,omitempty" validate:"omitempty,max=255,excludes=/"`
	NewPath   *string     `json:"new_path,omitempty" validate:"omitempty,max=2048"`
	NewStatus *NodeStatus `json:"new_status,omitempty" validate:"omitempty,oneof=active completed archived"`
	NewOrder  *float64    `json:"new_order,omitempty"`
	NewMeta   *string     `json:"new_meta,omitempty" validate:"omitempty,json"`
}

// Validate validates the update node request
func (r *NodeUpdate) Validate() error {
	return validateStruct(r)
}

// Source resolves the node being updated.
func (r *NodeUpdate) Source() (Address, error) {
	if err := r.Validate(); err != nil {
		return Address{}, err
	}
	return Resolve(r.Title, r.Path)
}

// Target resolves where the node ends up, given its current address.
func (r *NodeUpdate) Target(current Address) (Address, error) {
	title := current.Title
	if r.NewTitle != nil && *r.NewTitle != "" {
		title = *r.NewTitle
	}
	path := current.Path
	if r.NewPath != nil {
		path = *r.NewPath
	}
	return Resolve(title, path)
}

// Relocates reports whether the request changes the node's title or path.
func (r *NodeUpdate) Relocates() bool {
	return (r.NewTitle != nil && *r.NewTitle != "") || r.NewPath != nil
}

// NodeDelete identifies a node to delete, either by ID or by address.
type NodeDelete struct {
	ID    *uuid.UUID `json:"id,omitempty" form:"-"`
	Title string     `json:"title,omitempty" form:"title" validate:"omitempty,max=255,excludes=/"`
	Path  string     `json:"path,omitempty" form:"path" validate:"omitempty,max=2048"`
}

// Validate validates the delete node request
func (r *NodeDelete) Validate() error {
	if r.ID == nil && r.Title == "" && r.Path == "" {
		return addressError("id", "either id or title/path must be provided")
	}
	return validateStruct(r)
}

// Address resolves the node to delete. It is only meaningful when ID is nil.
func (r *NodeDelete) Address() (Address, error) {
	if err := r.Validate(); err != nil {
		return Address{}, err
	}
	return Resolve(r.Title, r.Path)
}
