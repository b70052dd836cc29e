package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/fulldump/apitest"
)

// Save renders a request/response pair as a markdown API example into the
// directory pointed by HYPERPOOL_API_EXAMPLES. Nothing is written when the
// variable is not set.
func Save(response *apitest.Response, title, description string) {

	examplesPath := os.Getenv("HYPERPOOL_API_EXAMPLES")
	if examplesPath == "" {
		return
	}

	request := response.Request

	query := request.URL.RawQuery
	if query != "" {
		query = "?" + query
	}
	requestBody := formatJSON(response.BodyRequestString())

	s := &strings.Builder{}

	fmt.Fprintf(s, "# %s\n%s\n", title, trimIndent(description))

	s.WriteString("Curl example:\n\n```sh\ncurl ")
	if request.Method != "GET" {
		s.WriteString("-X " + request.Method + " ")
	}
	fmt.Fprintf(s, "\"http://localhost:8080%s%s\"", request.URL.Path, query)
	if requestBody != "" {
		fmt.Fprintf(s, " \\\n-d '%s'", requestBody)
	}
	s.WriteString("\n```\n\n")

	s.WriteString("HTTP request/response example:\n\n```http\n")
	fmt.Fprintf(s, "%s %s%s %s\n", request.Method, request.URL.Path, query, request.Proto)
	s.WriteString("Host: localhost:8080\n\n")
	if requestBody != "" {
		s.WriteString(requestBody + "\n\n")
	}

	fmt.Fprintf(s, "%s %s\n", response.Proto, response.Status)
	headerKeys := []string{}
	for k := range response.Header {
		if k == "Date" {
			continue
		}
		headerKeys = append(headerKeys, k)
	}
	sort.Strings(headerKeys)
	for _, k := range headerKeys {
		for _, v := range response.Header[k] {
			fmt.Fprintf(s, "%s: %s\n", k, v)
		}
	}
	s.WriteString("\n" + formatJSON(response.BodyString()) + "\n```\n")

	filename := strings.ReplaceAll(strings.ToLower(title), " ", "_") + ".md"
	p := path.Join(examplesPath, path.Clean(filename))
	err := os.WriteFile(p, []byte(s.String()), 0666)
	if err != nil {
		fmt.Println("ERROR: save api example:", err)
	}
}

func formatJSON(body string) string {

	var i interface{}
	err := json.Unmarshal([]byte(body), &i)
	if err != nil {
		return strings.TrimSpace(body)
	}

	b, err := json.MarshalIndent(i, "", "    ")
	if err != nil {
		return body
	}

	return string(b)
}

// trimIndent removes the common tab indentation of a raw string literal.
func trimIndent(d string) string {

	lines := strings.Split(strings.Trim(d, "\n"), "\n")

	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, "\t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return strings.Join(lines, "\n")
	}

	prefix := strings.Repeat("\t", indent)
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}
