package commands

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/transitnet/transitnet-cli/internal/api"
	"github.com/transitnet/transitnet-cli/internal/appctx"
	"github.com/transitnet/transitnet-cli/internal/auth"
	"github.com/transitnet/transitnet-cli/internal/output"
)

// NewAPICmd creates the raw API access command.
func NewAPICmd() *cobra.Command {
	var method string
	var body string
	var anonymous bool
	var jqExpr string
	var pathParams []string
	var queryParams []string
	var list bool

	cmd := &cobra.Command{
		Use:   "api <resource|path>",
		Short: "Call the TransitNet API directly",
		Long: `Call a TransitNet API endpoint by resource name or path.

Resource names resolve through the resource registry (see 'api --list').
Paths starting with / are used as-is. Path parameters like :organizationId
are filled from -p key=value flags.`,
		Example: `  transitnet api organizations
  transitnet api organization -p organizationId=org_123
  transitnet api /users/self --jq .nickname
  transitnet api verification-email --anonymous -X POST -d '{"userId":"auth0|u1"}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			if list {
				for _, name := range app.Registry.Names() {
					path, _ := app.Registry.Lookup(name)
					fmt.Printf("%-32s %s\n", name, path)
				}
				return nil
			}
			if len(args) == 0 {
				return output.ErrUsageHint("Missing resource or path", "Run: transitnet api --list")
			}

			path := args[0]
			if !strings.HasPrefix(path, "/") {
				resolved, ok := app.Registry.Lookup(path)
				if !ok {
					return output.ErrUsageHint(
						fmt.Sprintf("Unknown resource %q", path),
						"Run: transitnet api --list",
					)
				}
				path = resolved
			}

			params, err := parseKeyValues(pathParams)
			if err != nil {
				return err
			}

			var opts []api.Option
			if anonymous {
				opts = append(opts, api.Anonymous())
			}
			resource := app.API.Resource(path, params, opts...)

			query := url.Values{}
			qp, err := parseKeyValues(queryParams)
			if err != nil {
				return err
			}
			for k, v := range qp {
				query.Set(k, v)
			}

			var payload any
			if body != "" {
				if err := json.Unmarshal([]byte(body), &payload); err != nil {
					return output.ErrUsageHint("Invalid request body", "The -d value must be valid JSON")
				}
			}

			// Writes to platform config need the write:config permission;
			// check locally so the failure is a clear message instead of a 403.
			if strings.HasPrefix(path, "/config") && !strings.EqualFold(method, "GET") && !anonymous {
				if !app.Auth.HasPermission(cmd.Context(), auth.PermissionWriteConfig) {
					return output.ErrClient(403, "Your account lacks the write:config permission")
				}
			}

			var data json.RawMessage
			switch strings.ToUpper(method) {
			case "GET":
				data, err = resource.Get(cmd.Context(), query)
			case "POST":
				data, err = resource.Post(cmd.Context(), payload)
			case "PATCH":
				data, err = resource.Patch(cmd.Context(), payload)
			case "DELETE":
				data, err = resource.Delete(cmd.Context())
			default:
				return output.ErrUsage(fmt.Sprintf("Unsupported method %q", method))
			}
			if err != nil {
				return err
			}

			return printJSON(data, jqExpr)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method (GET, POST, PATCH, DELETE)")
	cmd.Flags().StringVarP(&body, "data", "d", "", "JSON request body")
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "Send without authentication")
	cmd.Flags().StringVar(&jqExpr, "jq", "", "Filter the response through a jq expression")
	cmd.Flags().StringArrayVarP(&pathParams, "param", "p", nil, "Path parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&queryParams, "query", "q", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&list, "list", false, "List known resource names")

	return cmd
}

// parseKeyValues turns ["a=1", "b=2"] into a map.
func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, output.ErrUsage(fmt.Sprintf("Invalid parameter %q, expected key=value", pair))
		}
		m[key] = value
	}
	return m, nil
}

// printJSON pretty-prints a response, optionally filtered through jq.
func printJSON(data json.RawMessage, jqExpr string) error {
	if jqExpr == "" {
		var pretty any
		if err := json.Unmarshal(data, &pretty); err != nil {
			// Not JSON; print as-is.
			fmt.Println(string(data))
			return nil
		}
		out, err := json.MarshalIndent(pretty, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	query, err := gojq.Parse(jqExpr)
	if err != nil {
		return output.ErrUsageHint(fmt.Sprintf("Invalid jq expression: %v", err), "See https://jqlang.org/manual/")
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("response is not JSON: %w", err)
	}

	iter := query.Run(doc)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("jq: %w", err)
		}
		if s, isStr := v.(string); isStr {
			fmt.Println(s)
			continue
		}
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return nil
}
