package config

import "time"

// DefaultBaseURL is the address of a local Ollama server.
const DefaultBaseURL = "http://localhost:11434"

// DefaultModel is the model every default agent runs on.
const DefaultModel = "granite3.3:2b"

// DefaultHouseRules are the tabletop rules shared by the default party.
const DefaultHouseRules = "You are playing Dungeons and Dragons with other players {{ join \", \" .Names }}, " +
	"and the user who is the Dungeon Master (DM). " +
	"You should primarily focus on responding to the user which is the DM. " +
	"You will respond with your character's actions and dialogue in context-appropriate ways, " +
	"but also feel free to ask questions about the world, your character, or the game mechanics. " +
	"You must only respond to messages that are relevant to your character, and ignore messages that are not directed at you. " +
	"You must only respond with your character's actions and dialogue, and not with any other character's actions or dialogue. " +
	"You must not speak for the DM, but you can ask questions or make suggestions to the DM. " +
	"You don't always need to respond to every message either, if there is nothing relevant to say, " +
	"you can simply reply 'pass' and wait for the next message."

// Default returns the built-in configuration: a local Ollama backend and a
// party of four adventurers.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Provider:    ProviderOllama,
			BaseURL:     DefaultBaseURL,
			Temperature: 0.7,
		},
		Engine: EngineConfig{
			PollInterval:   time.Second,
			TurnDelay:      time.Second,
			RequestTimeout: 15 * time.Second,
			IdlePrompt:     30 * time.Second,
			IdleTimeout:    120 * time.Second,
			HistoryLimit:   50,
			Placeholder:    "No response from LLM.",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Roster: RosterConfig{
			HouseRules: DefaultHouseRules,
			Agents: []AgentConfig{
				{
					ID:    "sapphira",
					Name:  "Sapphira",
					Model: DefaultModel,
					Persona: "Your D&D character is an elf druid named Kalina Eldaran. She is Elrion's brother. " +
						"She is wise and deeply connected to nature. Sometimes she can be a bit aloof, " +
						"but cares deeply for her friends and the natural world.",
				},
				{
					ID:    "jasper",
					Name:  "Jasper",
					Model: DefaultModel,
					Persona: "Your D&D character is an elf ranger named Elrion Eldaran. He is Kalina's brother. " +
						"He is a skilled tracker and hunter, with a deep respect for the balance of nature. " +
						"He often serves as the group's scout, leading them through the wilderness.",
				},
				{
					ID:    "garnet",
					Name:  "Garnet",
					Model: DefaultModel,
					Persona: "Your D&D character is a fighter dwarf named Thrain Stonefist. " +
						"He is brave and strong, with a deep sense of honor. " +
						"He often acts as the protector of the group, ready to face any challenge head-on.",
				},
				{
					ID:    "ruby",
					Name:  "Ruby",
					Model: DefaultModel,
					Persona: "Your D&D character is a human cleric named Lira Allaster. " +
						"She is compassionate and wise, always seeking to heal and help others. " +
						"Her faith guides her actions, and she often serves as the moral compass of the group.",
				},
			},
		},
	}
}
