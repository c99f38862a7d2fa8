/*
Package main is the entry point for cortexbridge.

cortexbridge answers natural-language questions through Snowflake Cortex
Agents and Cortex Search, executes the SQL the agent generates, and exposes
the results over a REST API, a chat host agent, and one-shot CLI commands.
*/
package main

import "cortexbridge/cmd"

func main() {
	cmd.Execute()
}
