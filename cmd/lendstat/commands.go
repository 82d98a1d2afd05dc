package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/lendstat/internal/domain"
	"github.com/mtlprog/lendstat/internal/export"
	"github.com/mtlprog/lendstat/internal/format"
	"github.com/mtlprog/lendstat/internal/portfolio"
)

var (
	accountFlag = &cli.StringFlag{
		Name:     "account",
		Aliases:  []string{"a"},
		Usage:    "account address",
		Required: true,
	}
	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "print JSON instead of a table",
	}
)

func accountArg(c *cli.Context) (string, error) {
	account := c.String("account")
	if !common.IsHexAddress(account) {
		return "", fmt.Errorf("invalid account address %q", account)
	}
	return strings.ToLower(account), nil
}

// parseAmount accepts the same amounts as the preview endpoint: non-negative decimals.
func parseAmount(s string) (string, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return "", fmt.Errorf("amount must be a non-negative decimal, got %q", s)
	}
	return s, nil
}

func portfolioCommand() *cli.Command {
	return &cli.Command{
		Name:  "portfolio",
		Usage: "print the portfolio of an account",
		Flags: []cli.Flag{accountFlag, jsonFlag},
		Action: func(c *cli.Context) error {
			account, err := accountArg(c)
			if err != nil {
				return err
			}
			a, err := newApp(c)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.portfolios.GetPortfolio(c.Context, account)
			if err != nil {
				return err
			}
			return printPortfolio(c.App.Writer, p, c.Bool("json"))
		},
	}
}

func marketsCommand() *cli.Command {
	return &cli.Command{
		Name:  "markets",
		Usage: "print market rates, prices and liquidity",
		Flags: []cli.Flag{jsonFlag},
		Action: func(c *cli.Context) error {
			a, err := newApp(c)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.portfolios.GetMarkets(c.Context)
			if err != nil {
				return err
			}
			return printPortfolio(c.App.Writer, p, c.Bool("json"))
		},
	}
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "preview the borrow position after a supply, withdraw, borrow or repay",
		Flags: []cli.Flag{
			accountFlag,
			&cli.StringFlag{Name: "market", Usage: "market address or symbol", Required: true},
			&cli.StringFlag{Name: "action", Usage: "supply, withdraw, borrow or repay", Required: true},
			&cli.StringFlag{Name: "amount", Usage: "underlying amount", Value: "0"},
		},
		Action: func(c *cli.Context) error {
			account, err := accountArg(c)
			if err != nil {
				return err
			}
			action, err := portfolio.ParseAction(c.String("action"))
			if err != nil {
				return err
			}
			amount, err := parseAmount(c.String("amount"))
			if err != nil {
				return err
			}
			a, err := newApp(c)
			if err != nil {
				return err
			}
			defer a.Close()

			preview, err := a.portfolios.PreviewAction(c.Context, account, c.String("market"), action, amount)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(preview)
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write the portfolio of an account to an XLSX workbook",
		Flags: []cli.Flag{
			accountFlag,
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "workbook path, {account} is replaced", Value: "{account}.xlsx"},
		},
		Action: func(c *cli.Context) error {
			account, err := accountArg(c)
			if err != nil {
				return err
			}
			a, err := newApp(c)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.portfolios.GetPortfolio(c.Context, account)
			if err != nil {
				return err
			}
			if len(p.Loading) > 0 {
				return fmt.Errorf("markets still loading: %s", strings.Join(p.Loading, ", "))
			}

			w := export.NewXLSXWriter(c.String("out"))
			if err := w.Write(c.Context, p, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "written %s\n", w.Path(account))
			return nil
		},
	}
}

func printPortfolio(out io.Writer, p domain.Portfolio, asJSON bool) error {
	v := format.View(p)
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tPRICE\tSUPPLIED\tBORROWED\tLIQUIDITY\tSUPPLY APY\tBORROW APY\tCF\tCOLLATERAL")
	for _, m := range v.Markets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			m.Symbol, m.Price, m.SuppliedValue, m.BorrowedValue, m.Liquidity,
			m.SupplyAPY, m.BorrowAPY, m.CollateralFactor, m.Collateral)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nsupplied %s  borrowed %s  limit %s  used %s  net APY %s\n",
		v.TotalSupplied, v.TotalBorrowed, v.BorrowLimit, v.UsedLimit, v.NetAPY)
	if len(v.Loading) > 0 {
		fmt.Fprintf(out, "loading: %s\n", strings.Join(v.Loading, ", "))
	}
	if len(v.Unavailable) > 0 {
		fmt.Fprintf(out, "unavailable: %s\n", strings.Join(v.Unavailable, ", "))
	}
	return nil
}
