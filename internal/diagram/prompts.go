package diagram

import "fmt"

const (
	analysisExcerptLimit   = 3000
	generationExcerptLimit = 2500
)

const analysisPromptTemplate = `You are an expert technical content analyzer specializing in identifying diagram-worthy information.

Your task: Analyze the following technical blog post and determine if a meaningful diagram can be generated from it.

BLOG SUMMARY:
%s

BLOG CONTENT (First 3000 chars):
%s

ANALYSIS INSTRUCTIONS:
1. Identify if the content contains any of these diagram-worthy elements:
   - Workflows, processes, or step-by-step procedures (flowchart)
   - API calls, request/response flows, or message exchanges (sequence)
   - Class hierarchies, OOP structures, or component architectures (class)
   - Database schemas, entity relationships (er)
   - State transitions, lifecycle stages (state)
   - Hierarchical concepts, categorizations (mindmap)
   - Statistical data, comparisons, proportions (pie)
   - Project timelines, release schedules (timeline)

2. Evaluate diagram viability:
   - GENERATE if: Content has clear visual relationships, flows, or structures
   - SKIP if: Content is purely narrative, opinion-based, or lacks visual elements

3. Select the SINGLE BEST diagram type that represents the core concept

RESPOND IN VALID JSON FORMAT ONLY:
{
  "isViable": true/false,
  "reasoning": "Brief explanation of your decision (2-3 sentences)",
  "recommendedType": "flowchart" | "sequence" | "class" | "er" | "state" | "mindmap" | "pie" | "timeline" | null,
  "confidence": 0.0-1.0
}

CRITICAL: Return ONLY valid JSON, no additional text.`

// AnalysisPrompt builds the viability-analysis prompt.
func AnalysisPrompt(content, summary string) string {
	return fmt.Sprintf(analysisPromptTemplate, summary, excerpt(content, analysisExcerptLimit))
}

// kindPrompts pairs each kind with its generation prompt builder.
// Validators live in validate.go; the two maps share the Kind key space
// and both are exercised by TestEveryKindHasPromptAndValidator.
var kindPrompts = map[Kind]func(content, summary string) string{
	KindFlowchart: promptTemplate(`You are a flowchart generation expert. Create a flowchart JSON structure from this technical content.

CONTENT:
%s

DETAILED CONTENT (First 2500 chars):
%s

FLOWCHART RULES:
- Focus on the PRIMARY workflow, process, or algorithm described
- Use 4-8 nodes (not too simple, not too complex)
- Each node should represent a clear step or decision point
- Edges show the flow/sequence between steps

JSON SCHEMA:
{
  "nodes": [
    { "id": "A", "label": "Start/First Step" },
    { "id": "B", "label": "Process/Action" }
  ],
  "edges": [
    { "from": "A", "to": "B" }
  ]
}

CRITICAL REQUIREMENTS:
- ONLY return valid JSON matching the schema above
- Use single-letter IDs (A, B, C, D, etc.)
- Labels must be concise (max 6 words)
- All edge references must point to existing node IDs
- Minimum 3 nodes, maximum 10 nodes

GENERATE THE FLOWCHART JSON NOW:`),

	KindSequence: promptTemplate(`You are a sequence diagram expert. Create a sequence diagram JSON from this technical content.

CONTENT:
%s

DETAILED CONTENT (First 2500 chars):
%s

SEQUENCE DIAGRAM RULES:
- Show interactions between 2-5 participants (components, services, APIs)
- Each message represents a request, response, or data flow
- Focus on the main interaction flow described in the content

JSON SCHEMA:
{
  "messages": [
    { "from": "Participant1", "to": "Participant2", "message": "Action or request" }
  ]
}

CRITICAL REQUIREMENTS:
- ONLY return valid JSON matching the schema above
- Participant names: 1-2 words, PascalCase (e.g., "User", "API", "Database")
- Messages: Clear action verbs (e.g., "Send request", "Return data")
- Minimum 3 messages, maximum 12 messages
- Show complete interaction flow (request, processing, response)

GENERATE THE SEQUENCE DIAGRAM JSON NOW:`),

	KindClass: promptTemplate(`You are a class diagram expert. Create a class diagram JSON from this technical content.

CONTENT:
%s

DETAILED CONTENT (First 2500 chars):
%s

CLASS DIAGRAM RULES:
- Extract 2-5 classes/components from the content
- Include key attributes and methods for each class
- Show inheritance or composition relationships

JSON SCHEMA:
{
  "classes": [
    {
      "name": "ClassName",
      "attributes": ["attribute1", "attribute2"],
      "methods": ["method1", "method2"]
    }
  ],
  "relations": [
    { "from": "ParentClass", "to": "ChildClass", "type": "inherits" }
  ]
}

CRITICAL REQUIREMENTS:
- ONLY return valid JSON matching the schema above
- Class names: PascalCase (e.g., "UserService", "DataModel")
- Attributes: camelCase, no types (e.g., "userId", "email")
- Methods: camelCase, no parameters (e.g., "fetchData", "validate")
- Relations optional if no clear inheritance/composition

GENERATE THE CLASS DIAGRAM JSON NOW:`),

	KindER: promptTemplate(`You are a database ER diagram expert. Create an Entity-Relationship diagram JSON from this technical content.

CONTENT:
%s

DETAILED CONTENT (First 2500 chars):
%s

ER DIAGRAM RULES:
- Extract 2-4 database entities (tables) from the content
- Include key fields for each entity (id, foreign keys, main attributes)
- Show relationships between entities

JSON SCHEMA:
{
  "entities": [
    {
      "name": "EntityName",
      "fields": [
        { "type": "int", "name": "id" },
        { "type": "string", "name": "fieldName" }
      ]
    }
  ],
  "relations": [
    { "from": "Entity1", "to": "Entity2", "label": "relationship" }
  ]
}

CRITICAL REQUIREMENTS:
- ONLY return valid JSON matching the schema above
- Entity names: PascalCase (e.g., "User", "Order")
- Field types: int, string, text, boolean, date, float
- Field names: camelCase (e.g., "userId", "createdAt")
- Always include "id" field as first field

GENERATE THE ER DIAGRAM JSON NOW:`),

	KindState: promptTemplate(`You are a state diagram expert. Create a state diagram JSON from this technical content.

CONTENT:
%s

DETAILED CONTENT (First 2500 chars):
%s

STATE DIAGRAM RULES:
- Identify 3-6 distinct states in the lifecycle/workflow
- Show transitions between states with trigger events

JSON SCHEMA:
{
  "states": [
    { "name": "StateName" }
  ],
  "transitions": [
    { "from": "State1", "to": "State2", "label": "trigger event" }
  ]
}

CRITICAL REQUIREMENTS:
- ONLY return valid JSON matching the schema above
- State names: PascalCase (e.g., "Idle", "Running")
- Transition labels: lowercase action verbs (e.g., "start", "stop", "error")
- Minimum 3 states, maximum 8 states

GENERATE THE STATE DIAGRAM JSON NOW:`),

	KindMindmap: promptTemplate(`You are a mindmap expert. Create a hierarchical mindmap JSON from this technical content.

CONTENT:
%s

DETAILED CONTENT (First 2500 chars):
%s

MINDMAP RULES:
- Root node = main topic/concept
- 2-4 primary branches (main categories)
- 2-3 sub-branches per primary branch
- Maximum 3 levels deep

JSON SCHEMA:
{
  "root": {
    "text": "Main Topic",
    "children": [
      {
        "text": "Category 1",
        "children": [
          { "text": "Subconcept 1" }
        ]
      }
    ]
  }
}

CRITICAL REQUIREMENTS:
- ONLY return valid JSON matching the schema above
- Text: Short phrases (2-4 words max)
- 2-4 primary children, 2-3 secondary children each
- Focus on hierarchical relationships

GENERATE THE MINDMAP JSON NOW:`),

	KindPie: promptTemplate(`You are a data visualization expert. Create a pie chart JSON from this technical content.

CONTENT:
%s

DETAILED CONTENT (First 2500 chars):
%s

PIE CHART RULES:
- Extract quantitative data, percentages, or proportions
- 3-6 slices (not too many)
- Values should sum to 100 (if percentages) or be meaningful proportions

JSON SCHEMA:
{
  "title": "Chart Title",
  "slices": [
    { "label": "Category 1", "value": 45 },
    { "label": "Category 2", "value": 30 }
  ]
}

CRITICAL REQUIREMENTS:
- ONLY return valid JSON matching the schema above
- Values: positive numbers (integers or floats)
- Labels: concise (1-3 words)
- If no clear numerical data exists, SKIP this diagram type

GENERATE THE PIE CHART JSON NOW:`),

	KindTimeline: promptTemplate(`You are a timeline visualization expert. Create a timeline JSON from this technical content.

CONTENT:
%s

DETAILED CONTENT (First 2500 chars):
%s

TIMELINE RULES:
- Extract chronological events, releases, or milestones
- 4-8 events in time order
- Include dates or version numbers

JSON SCHEMA:
{
  "events": [
    { "date": "2024-01", "title": "Event description" },
    { "year": "2024", "title": "Event description" }
  ]
}

CRITICAL REQUIREMENTS:
- ONLY return valid JSON matching the schema above
- Use "date" (YYYY-MM) or "year" (YYYY) format
- Titles: concise event descriptions (max 8 words)
- Chronological order (earliest to latest)

GENERATE THE TIMELINE JSON NOW:`),
}

// GenerationPrompt builds the type-specific structure prompt.
func GenerationPrompt(kind Kind, content, summary string) (string, bool) {
	build, ok := kindPrompts[kind]
	if !ok {
		return "", false
	}
	return build(content, summary), true
}

func promptTemplate(tmpl string) func(content, summary string) string {
	return func(content, summary string) string {
		return fmt.Sprintf(tmpl, summary, excerpt(content, generationExcerptLimit))
	}
}

func excerpt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
