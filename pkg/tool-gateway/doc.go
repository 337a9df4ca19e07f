// Package toolgateway exposes a toolgate.Toolkit as a Streamable MCP server
// with exactly three meta-tools: list_tools, get_tool_schema, and call_tool.
// A language model host connects to the gateway like any other MCP server and
// works through the staged discovery protocol the Toolkit enforces.
package toolgateway
