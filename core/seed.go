package core

import "fmt"

// SeedMessage builds the system message installed into an agent's mailbox
// at startup: identity, shared house rules and the agent's persona.
func SeedMessage(spec AgentSpec, houseRules string) Message {
	return SystemMessage(fmt.Sprintf("Your name is %s\n%s\n%s", spec.DisplayName, houseRules, spec.Persona))
}
