package domain

import "time"

// IngredientAnalysis is a parsed verdict that has not been stored yet.
type IngredientAnalysis struct {
	Name           string   `json:"name"`
	ScientificName string   `json:"scientificName,omitempty"`
	Description    string   `json:"description"`
	Status         Status   `json:"status"`
	CommonUses     []string `json:"commonUses,omitempty"`
	SafetyNotes    string   `json:"safetyNotes"`
	Alternatives   []string `json:"alternatives,omitempty"`
}

// Ingredient is a stored ingredient record. Name is matched case-insensitively.
type Ingredient struct {
	ID string `json:"id"`
	IngredientAnalysis
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IngredientUpdate carries a partial update. Nil fields are left unchanged.
type IngredientUpdate struct {
	Description    *string   `json:"description,omitempty"`
	SafetyNotes    *string   `json:"safetyNotes,omitempty"`
	Status         *Status   `json:"status,omitempty"`
	ScientificName *string   `json:"scientificName,omitempty"`
	CommonUses     *[]string `json:"commonUses,omitempty"`
	Alternatives   *[]string `json:"alternatives,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u IngredientUpdate) Empty() bool {
	return u.Description == nil && u.SafetyNotes == nil && u.Status == nil &&
		u.ScientificName == nil && u.CommonUses == nil && u.Alternatives == nil
}

// Apply merges u into a copy of the analysis.
func (u IngredientUpdate) Apply(a IngredientAnalysis) IngredientAnalysis {
	if u.Description != nil {
		a.Description = *u.Description
	}
	if u.SafetyNotes != nil {
		a.SafetyNotes = *u.SafetyNotes
	}
	if u.Status != nil {
		a.Status = *u.Status
	}
	if u.ScientificName != nil {
		a.ScientificName = *u.ScientificName
	}
	if u.CommonUses != nil {
		a.CommonUses = CloneStrings(*u.CommonUses)
	}
	if u.Alternatives != nil {
		a.Alternatives = CloneStrings(*u.Alternatives)
	}
	return a
}

// Clone returns a deep copy so stored slices are never shared with callers.
func (a IngredientAnalysis) Clone() IngredientAnalysis {
	a.CommonUses = CloneStrings(a.CommonUses)
	a.Alternatives = CloneStrings(a.Alternatives)
	return a
}

// Clone returns a deep copy of the record.
func (i Ingredient) Clone() Ingredient {
	i.IngredientAnalysis = i.IngredientAnalysis.Clone()
	return i
}

func CloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
