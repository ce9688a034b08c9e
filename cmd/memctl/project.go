package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
}

// ProjectCreateRequest matches internal/http/api.go ProjectCreateRequest
type ProjectCreateRequest struct {
	Codename string `json:"codename"`
}

// ProjectResponse matches internal/http/api.go ProjectResponse
type ProjectResponse struct {
	Codename string `json:"codename"`
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage projects",
	Long: `Manage the projects known to the server.

Examples:
  # List projects
  memctl projects list

  # Register a project
  memctl projects create api`,
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known projects",
	Long: `List the codenames of every project on the server.

Examples:
  # List projects
  memctl projects list`,
	RunE: runProjectsList,
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <codename>",
	Short: "Register a project",
	Long: `Register a project by codename. The codename is normalized to
lowercase; creating an existing project is a no-op.

Examples:
  # Register a project
  memctl projects create api

  # Mixed case is normalized
  memctl projects create MyApp`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectsCreate,
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	var codenames []string
	if err := doJSON(http.MethodGet, "/api/projects", nil, &codenames); err != nil {
		return err
	}

	if outputRawJSON {
		return outputJSON(codenames)
	}

	if len(codenames) == 0 {
		fmt.Println("No projects found")
		return nil
	}
	for _, codename := range codenames {
		fmt.Println(codename)
	}
	return nil
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	req := ProjectCreateRequest{Codename: args[0]}

	var project ProjectResponse
	if err := doJSON(http.MethodPost, "/api/projects", req, &project); err != nil {
		return err
	}

	if outputRawJSON {
		return outputJSON(project)
	}

	fmt.Printf("Project ready: %s\n", project.Codename)
	return nil
}
