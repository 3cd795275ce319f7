// Package labels applies a repository's label policy to a pull request when
// a trigger fires.
package labels

import (
	"fmt"
	"strings"
)

// Trigger is the reason a label policy is evaluated.
type Trigger string

const (
	TriggerApproved       Trigger = "approved"
	TriggerUnapproved     Trigger = "unapproved"
	TriggerBuildStarted   Trigger = "build_started"
	TriggerBuildSucceeded Trigger = "build_succeeded"
	TriggerBuildFailed    Trigger = "build_failed"
)

var knownTriggers = []Trigger{
	TriggerApproved,
	TriggerUnapproved,
	TriggerBuildStarted,
	TriggerBuildSucceeded,
	TriggerBuildFailed,
}

// Triggers lists every known trigger in a stable order.
func Triggers() []Trigger {
	return append([]Trigger(nil), knownTriggers...)
}

func ParseTrigger(s string) (Trigger, error) {
	for _, t := range knownTriggers {
		if string(t) == s {
			return t, nil
		}
	}
	names := make([]string, len(knownTriggers))
	for i, t := range knownTriggers {
		names[i] = string(t)
	}
	return "", fmt.Errorf("unknown trigger %q (expected one of %s)", s, strings.Join(names, ", "))
}

type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Modification is a single add-or-remove instruction for one label.
type Modification struct {
	Op    Op
	Label string
}

func Add(label string) Modification {
	return Modification{Op: OpAdd, Label: label}
}

func Remove(label string) Modification {
	return Modification{Op: OpRemove, Label: label}
}

func (m Modification) String() string {
	if m.Op == OpRemove {
		return "-" + m.Label
	}
	return "+" + m.Label
}

// Policy maps a trigger to the ordered modifications it performs.
type Policy map[Trigger][]Modification

// Lookup distinguishes a trigger with no entry from one mapped to an empty list.
func (p Policy) Lookup(trigger Trigger) ([]Modification, bool) {
	mods, ok := p[trigger]
	return mods, ok
}

// Partition splits modifications into labels to add and labels to remove,
// keeping the declared order within each group. Every modification lands in
// exactly one group: anything other than OpRemove adds, as String renders it.
func Partition(mods []Modification) (add, remove []string) {
	for _, m := range mods {
		if m.Op == OpRemove {
			remove = append(remove, m.Label)
			continue
		}
		add = append(add, m.Label)
	}
	return add, remove
}
