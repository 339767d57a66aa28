package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tramita/tramita/pkg/sei"
)

var documentCmd = &cobra.Command{
	Use:     "doc",
	Short:   "Document issuance, upload, signing and content",
	Aliases: []string{"document"},
}

var (
	docKind        string
	docDescription string
	docNote        string
	docDate        string
	docMime        string
	signRole       string
	signPassword   string
)

var docCreateCmd = &cobra.Command{
	Use:   "create <process-number>",
	Short: "Issue an internal document on a process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProcess(args[0], func(client *sei.Client) error {
			id, err := client.CreateDocument(sei.CreateDocumentOptions{
				Kind:        docKind,
				Description: docDescription,
				Note:        docNote,
			})
			if err != nil {
				return err
			}
			if id == "" {
				printFail("document type %q is not available in this unit", docKind)
				return nil
			}
			printOK("created document %s", id)
			return nil
		})
	},
}

var docUploadCmd = &cobra.Command{
	Use:   "upload <process-number> <file>",
	Short: "Register an external file on a process",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[1], err)
		}
		encoded := base64.StdEncoding.EncodeToString(payload)

		return withProcess(args[0], func(client *sei.Client) error {
			id, err := client.UploadDocument(filepath.Base(args[1]), encoded, sei.UploadDocumentOptions{
				Kind:        docKind,
				Date:        docDate,
				Description: docDescription,
				MimeType:    docMime,
			})
			if err != nil {
				return err
			}
			printOK("uploaded %s as document %s", filepath.Base(args[1]), id)
			return nil
		})
	},
}

var docSignCmd = &cobra.Command{
	Use:   "sign <process-number> <document-id>",
	Short: "Sign a document with the configured credentials",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := signPassword
		if password == "" {
			password = os.Getenv("TRAMITA_SIGN_PASSWORD")
		}
		if password == "" {
			password = loadedConfig.Password
		}

		return withProcess(args[0], func(client *sei.Client) error {
			ok, err := client.OpenDocument(args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("document %s not found in process %s", args[1], args[0])
			}

			signed, err := client.SignDocument(password, signRole)
			if err != nil {
				return err
			}
			if !signed {
				printFail("portal did not confirm the signature")
				return nil
			}
			printOK("signed document %s", args[1])
			return nil
		})
	},
}

var docContentCmd = &cobra.Command{
	Use:   "content <process-number> <document-id>",
	Short: "Print the rendered text of a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProcess(args[0], func(client *sei.Client) error {
			text, err := client.DocumentContent(args[1])
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		})
	},
}

func init() {
	docCreateCmd.Flags().StringVar(&docKind, "kind", "", "document type as shown in the portal picker (required)")
	docCreateCmd.Flags().StringVar(&docDescription, "description", "", "document description")
	docCreateCmd.Flags().StringVar(&docNote, "note", "", "unit observation text")
	_ = docCreateCmd.MarkFlagRequired("kind")

	docUploadCmd.Flags().StringVar(&docKind, "kind", "", "external document type (required)")
	docUploadCmd.Flags().StringVar(&docDescription, "description", "", "document description")
	docUploadCmd.Flags().StringVar(&docDate, "date", "", "document date, dd/mm/yyyy")
	docUploadCmd.Flags().StringVar(&docMime, "mime", "", "payload content type (default application/pdf)")
	_ = docUploadCmd.MarkFlagRequired("kind")

	docSignCmd.Flags().StringVar(&signRole, "role", "", "signing role when the account holds more than one")
	docSignCmd.Flags().StringVar(&signPassword, "password", "", "signing password (default: TRAMITA_SIGN_PASSWORD, then the login password)")

	documentCmd.AddCommand(docCreateCmd, docUploadCmd, docSignCmd, docContentCmd)
}
