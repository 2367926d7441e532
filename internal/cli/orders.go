package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sirosfoundation/go-ebics/pkg/order"
)

func newINICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ini",
		Short: "Send the signature key of the subscriber (INI)",
		Long: `Send the user's A005/A006 public signature key to the bank. The bank
activates the key once the signed initialisation letter arrived, see
'ebicsctl letter' for the key hashes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.runOrder(cmd.Context(), order.OrderTypeINI, order.Params{})
			return err
		},
	}
}

func newSPRCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "spr",
		Short: "Suspend the subscriber (SPR)",
		Long:  `Suspend the subscriber's access. The bank must re-initialise it before further orders are accepted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.runOrder(cmd.Context(), order.OrderTypeSPR, order.Params{})
			return err
		},
	}
}

func newPTKCmd(a *app) *cobra.Command {
	var from, to, output string

	cmd := &cobra.Command{
		Use:   "ptk",
		Short: "Download the customer protocol (PTK)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dateRange, err := parseDateRange(from, to)
			if err != nil {
				return err
			}
			tx, err := a.runOrder(cmd.Context(), order.OrderTypePTK, order.Params{DateRange: dateRange})
			if err != nil {
				return err
			}
			return a.writeResult(tx, output)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day of the protocol (yyyy-mm-dd)")
	cmd.Flags().StringVar(&to, "to", "", "last day of the protocol (yyyy-mm-dd)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file for the protocol, stdout if empty")
	return cmd
}

func newSTACmd(a *app) *cobra.Command {
	var from, to, output, orderType string

	cmd := &cobra.Command{
		Use:   "sta",
		Short: "Download account statements (STA, Z53, C53 ...)",
		Long: fmt.Sprintf(`Download the statements booked between --from and --to.

Supported order types: %s`, strings.Join(order.StatementOrderTypes, ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orderType = strings.ToUpper(orderType)
			if !slices.Contains(order.StatementOrderTypes, orderType) {
				return fmt.Errorf("unsupported statement order type %q", orderType)
			}
			dateRange, err := parseDateRange(from, to)
			if err != nil {
				return err
			}
			if dateRange == nil {
				return fmt.Errorf("--from and --to are required")
			}
			tx, err := a.runOrder(cmd.Context(), orderType, order.Params{DateRange: dateRange})
			if err != nil {
				return err
			}
			return a.writeResult(tx, output)
		},
	}

	cmd.Flags().StringVarP(&orderType, "order-type", "t", order.OrderTypeSTA, "statement order type")
	cmd.Flags().StringVar(&from, "from", "", "first booking day (yyyy-mm-dd)")
	cmd.Flags().StringVar(&to, "to", "", "last booking day (yyyy-mm-dd)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file for the statements, stdout if empty")
	return cmd
}

func newCCTCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cct <payments.yaml>",
		Short: "Upload SEPA credit transfers (CCT)",
		Long: `Upload the credit transfers described in a YAML file as a signed
pain.001 document.

Example file:

  initiating_party: Example GmbH
  payment_infos:
    - debtor_name: Example GmbH
      debtor_account: DE02100100109307118603
      debtor_agent: PBNKDEFFXXX
      execution_date: "2024-03-04"
      transactions:
        - end_to_end_id: INV-2024-0042
          amount: "125.00"
          currency: EUR
          creditor_name: Supplier AG
          creditor_account: DE75512108001245126199
          remittance_info: Invoice 2024-0042`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transfer, err := loadCreditTransfer(args[0])
			if err != nil {
				return err
			}
			sum, n, err := transfer.ControlSum()
			if err != nil {
				return err
			}
			a.logger.Info("uploading credit transfers",
				"file", args[0],
				"transactions", n,
				"control_sum", sum.StringFixed(2))

			_, err = a.runOrder(cmd.Context(), order.OrderTypeCCT, order.Params{CreditTransfer: transfer})
			return err
		},
	}
}

func loadCreditTransfer(path string) (*order.CreditTransfer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading payment file: %w", err)
	}

	var transfer order.CreditTransfer
	if err := yaml.Unmarshal(data, &transfer); err != nil {
		return nil, fmt.Errorf("parsing payment file: %w", err)
	}
	if len(transfer.PaymentInfos) == 0 {
		return nil, fmt.Errorf("payment file %s contains no payment_infos", path)
	}
	return &transfer, nil
}
