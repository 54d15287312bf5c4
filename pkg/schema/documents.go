package schema

func str(description string) Document {
	d := Document{"type": "string"}
	if description != "" {
		d["description"] = description
	}
	return d
}

func object(properties Document, required ...string) Document {
	d := Document{"type": "object", "properties": properties}
	if len(required) > 0 {
		d["required"] = required
	}
	return d
}

// Agreement describes the creator's final answer.
func Agreement() Document {
	return object(Document{
		"title":               str("The agreement to be resolved, the title must be clear and concise, should interpret directly to how the agreement will be resolved."),
		"rules":               str("The rules of the agreement, include how the agreement will be resolved."),
		"description":         str("The description of the agreement. Must be clear and concise. Do not add redundant information."),
		"relevantInformation": str("The relevant information of the agreement, for example, if the agreement is about price, the info must include the current price as a reference."),
		"startAt":             str("The date time that the agreement is created, in UTC ISO format."),
		"betEndAt":            str("The date time to end the betting, in UTC ISO format. Normally after the startAt by 1 day. Otherwise it need to be a appropriate time (just a short period). If the bet is short, use appropriate time based on the agreement."),
		"resolveAt":           str("The date time to resolve the agreement, in UTC ISO format."),
		"resolveQuery":        str(`The query that will be ran to resolve the agreement at the "resolveAt" datetime. The query must be able to be answered by searching the internet.`),
		"resolveSources": Document{
			"type":        "array",
			"items":       str(""),
			"description": "The possible sources URL that the query can be answered from.",
		},
		"outcomes": Document{
			"type":        "array",
			"minItems":    2,
			"description": "The outcomes to be resolved",
			"items": object(Document{
				"title":       str("The title of the outcome"),
				"description": str("The description of the outcome"),
			}, "title", "description"),
		},
	}, "title", "rules", "description", "relevantInformation", "startAt", "betEndAt", "resolveAt", "resolveQuery", "resolveSources", "outcomes")
}

// OutcomeSelection describes the resolver's final answer.
func OutcomeSelection() Document {
	return object(Document{
		"outcomeIndex": Document{"type": "integer", "minimum": 0, "description": "The index of the outcome"},
		"reason":       str("The reason for why the outcome is chosen"),
		"sources": Document{
			"type":        "array",
			"items":       str(""),
			"description": "The sources that has been queried to resolve the outcome",
		},
	}, "outcomeIndex", "reason", "sources")
}

// Action describes one model step. TALK stays well-formed for every agent; agents
// that cannot talk reject it after decoding.
func Action(finalAnswer Document) Document {
	types := []string{"HIGH_LEVEL_PLANNING", "EXECUTE", "TALK", "FINAL_ANSWER"}

	label := str("The label of execution, user will see this.")
	props := Document{
		"type": Document{
			"type":        "string",
			"enum":        types,
			"description": "The type of the action to be taken.",
		},
		"HIGH_LEVEL_PLANNING": object(Document{
			"label":                   label,
			"name":                    str(""),
			"currentStateOfExecution": str(""),
			"observationReflection":   str(""),
			"memory":                  Document{"type": []string{"string", "null"}},
			"plan":                    str(""),
			"planReasoning":           str(""),
		}, "label", "name", "currentStateOfExecution", "observationReflection", "plan", "planReasoning"),
		"EXECUTE": object(Document{
			"label":   label,
			"name":    str(""),
			"thought": str(""),
			"tasks": Document{
				"type": "array",
				"items": object(Document{
					"taskTool": str("A name of the tool to be called, can be one of the tools available."),
					"taskToolParameters": Document{
						"type":        "object",
						"description": "The parameters to be passed to the tool, must match the tool parameters.",
					},
					"taskThought": str(""),
				}, "taskTool", "taskToolParameters", "taskThought"),
			},
		}, "label", "name", "thought", "tasks"),
		"TALK": Document{
			"type":        "string",
			"minLength":   1,
			"description": "Text that will be displayed to the user. Used to ask user, display information/error, talk to user.",
		},
		"FINAL_ANSWER": finalAnswer,
	}
	return object(props, "type")
}
