package mcpserver

// EntryFormat describes the notebook entry fields that LLM consumers should
// fill when adding discoveries.
const EntryFormat = `# EcoLog Entry Format

Every notebook entry is a JSON object with these fields.

| Field         | Required | Notes                                          |
|---------------|----------|------------------------------------------------|
| title         | yes      | Common name of the species (1-200 characters)  |
| scientific    | no       | Binomial name, e.g. "Vulpes vulpes"            |
| description   | no       | One or two sentences about the organism        |
| fun_fact      | no       | A single interesting fact                      |
| notes         | no       | The observer's own notes: place, weather, etc. |
| author        | no       | Who made the observation                       |
| image_url     | no       | Illustration or photo URL                      |
| tags          | no       | List of short lowercase tags                   |

The server assigns ` + "`id`" + `. Unknown fields are ignored.

## Rules

1. Add entries to an existing notebook. Create one with ` + "`create_notebook`" + ` first if needed.
2. Prefer the output of ` + "`identify_species`" + `: it already has title, scientific,
   description, tags, fun_fact and image_url filled in. Add notes before saving.
3. Tags are lowercase, kebab-case (e.g. ` + "`garden-bird`" + `, ` + "`night-sighting`" + `).
   The tool takes them comma-separated.
4. Names come from the vision reply "{species_name}, {scientific_name}, {description}".
   Do not put commas inside the species name.

## Example

` + "```" + `json
{
  "title": "Red Fox",
  "scientific": "Vulpes vulpes",
  "description": "A small omnivorous canid with a russet coat.",
  "fun_fact": "Red foxes use the Earth's magnetic field when pouncing.",
  "notes": "Crossed the allotment path at dusk.",
  "author": "sam",
  "image_url": "https://example.com/fox.png",
  "tags": ["mammal", "dusk"]
}
` + "```" + `
`
