// Package template provides the fixed diagram starting points used by the
// template subcommand. Exactly six templates are recognized; an unknown
// name is an error that lists the valid choices, never a fallback.
package template

import (
	"sort"
	"strings"

	"github.com/mermatic/mermatic/pkg/errors"
)

// Template names.
const (
	Flowchart = "flowchart"
	Sequence  = "sequence"
	Class     = "class"
	ER        = "er"
	Gantt     = "gantt"
	GitGraph  = "gitgraph"
)

const flowchartText = `graph TD
    A[Start] --> B{Decision}
    B -->|Yes| C[Do something]
    B -->|No| D[Do something else]
    C --> E[End]
    D --> E
`

const sequenceText = `sequenceDiagram
    participant A as Alice
    participant B as Bob
    A->>B: Hello Bob, how are you?
    B-->>A: I am good thanks!
    A->>B: Great to hear!
`

const classText = `classDiagram
    Animal <|-- Duck
    Animal <|-- Fish
    Animal : +int age
    Animal : +String gender
    Animal : +isMammal()
    Duck : +String beakColor
    Duck : +swim()
    Fish : -int sizeInFeet
    Fish : -canEat()
`

const erText = `erDiagram
    CUSTOMER ||--o{ ORDER : places
    ORDER ||--|{ LINE-ITEM : contains
    CUSTOMER }|..|{ DELIVERY-ADDRESS : uses
`

const ganttText = `gantt
    title Project Schedule
    dateFormat YYYY-MM-DD
    section Planning
    Requirements :a1, 2024-01-01, 7d
    Design       :a2, after a1, 10d
    section Build
    Implementation :b1, after a2, 21d
    Testing        :b2, after b1, 14d
`

const gitGraphText = `gitGraph:
commit
branch develop
checkout develop
commit
commit
checkout master
commit
merge develop
`

// templates maps template names to their diagram source text.
var templates = map[string]string{
	Flowchart: flowchartText,
	Sequence:  sequenceText,
	Class:     classText,
	ER:        erText,
	Gantt:     ganttText,
	GitGraph:  gitGraphText,
}

// Names returns the recognized template names in sorted order.
func Names() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the diagram source for a template name.
func Get(name string) (string, error) {
	text, ok := templates[name]
	if !ok {
		return "", errors.New(errors.ErrCodeTemplateNotFound,
			"unknown template %q (valid: %s)", name, strings.Join(Names(), ", "))
	}
	return text, nil
}
