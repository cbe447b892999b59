package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"duobook/internal/core"
	"duobook/internal/ledger"
)

func (a *app) cmdSignUp(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	nickname := fs.String("nickname", "", "display name")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *nickname == "" || *password == "" {
		return fmt.Errorf("signup requires -email, -nickname and -password")
	}

	if err := a.client.SignUp(ctx, *email, *nickname, *password); err != nil {
		return err
	}
	token, err := a.client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(token); err != nil {
		return err
	}
	fmt.Printf("%s님, 환영합니다!\n", *nickname)
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("login requires -email and -password")
	}

	token, err := a.client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(token); err != nil {
		return err
	}

	user, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s님, 어서오세요.\n", user.Nickname)
	return nil
}

func (a *app) cmdLogout() error {
	if err := a.tokens.Clear(); err != nil {
		return err
	}
	fmt.Println("로그아웃 되었습니다.")
	return nil
}

func (a *app) cmdWhoAmI(ctx context.Context) error {
	user, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", user.Nickname, user.Email)
	return nil
}

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	date := fs.String("date", time.Now().Format("2006-01-02"), "date (yyyy-MM-dd)")
	price := fs.String("price", "", "amount in won, e.g. 12,000 or 12000원")
	desc := fs.String("desc", "", "what the money went to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in, err := lineInput(*date, *price, *desc)
	if err != nil {
		return err
	}
	if err := a.service.CreateLine(ctx, in); err != nil {
		return errReported
	}
	a.service.Flush()
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	month := fs.String("month", "", "month to list (yyyy-MM, default current)")
	mine := fs.Bool("mine", false, "only lines I created")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.setMonth(*month); err != nil {
		return err
	}

	var me core.User
	if *mine {
		var err error
		if me, err = a.client.Me(ctx); err != nil {
			return err
		}
	}

	for {
		more, err := a.service.FetchMoreLines(ctx)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	lines := a.service.Lines()
	if *mine {
		filtered := lines[:0:0]
		for _, l := range lines {
			if l.Creator.ID == me.ID {
				filtered = append(filtered, l)
			}
		}
		lines = filtered
	}

	if len(lines) == 0 {
		fmt.Println("새로운 시작!")
		fmt.Println("이번달도 으쌰으쌰!")
		return nil
	}
	renderLines(lines)
	return nil
}

func (a *app) cmdEdit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	id := fs.Int64("id", 0, "line id")
	date := fs.String("date", "", "new date (yyyy-MM-dd)")
	price := fs.String("price", "", "new amount in won")
	desc := fs.String("desc", "", "new description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return fmt.Errorf("edit requires -id")
	}

	current, err := a.service.LineDetail(ctx, *id)
	if err != nil {
		return err
	}

	in := core.LineInput{
		Date:        current.Date,
		Description: current.Description,
		Price:       current.Price,
	}
	if *date != "" {
		if in.Date, err = core.ParseDate(*date); err != nil {
			return err
		}
	}
	if *desc != "" {
		in.Description = *desc
	}
	if *price != "" {
		if in.Price, err = core.ParseWon(*price); err != nil {
			return err
		}
	}

	if err := a.service.UpdateLine(ctx, *id, in); err != nil {
		return errReported
	}
	a.service.Flush()
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.Int64("id", 0, "line id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return fmt.Errorf("delete requires -id")
	}

	if err := a.service.DeleteLine(ctx, *id); err != nil {
		return errReported
	}
	a.service.Flush()
	return nil
}

func (a *app) cmdSettle(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("settle", flag.ExitOnError)
	month := fs.String("month", "", "month to settle (yyyy-MM, default current)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.setMonth(*month); err != nil {
		return err
	}
	f := a.service.Filter()
	f.Tab = ledger.TabSettlement
	a.service.SetFilter(f)

	view, err := a.service.Settlement(ctx)
	if err != nil {
		return err
	}
	renderSettlement(f.Month, view)
	return nil
}

func (a *app) cmdMonth(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("month", flag.ExitOnError)
	month := fs.String("month", "", "month to show (yyyy-MM, default current)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.setMonth(*month); err != nil {
		return err
	}

	overview, err := a.service.Overview(ctx)
	if err != nil {
		return err
	}
	renderOverview(overview)
	return nil
}

func (a *app) cmdUpload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: duobook upload <file>")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := a.client.Upload(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}
	fmt.Println(result.Key)
	if result.URL != "" {
		fmt.Println(result.URL)
	}
	return nil
}

func (a *app) cmdRemoveUpload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: duobook rm-upload <key>")
	}
	if err := a.client.DeleteUpload(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("삭제되었습니다.")
	return nil
}

// setMonth moves the active filter when -month was given, keeping the
// already loaded pages otherwise.
func (a *app) setMonth(month string) error {
	if month == "" {
		return nil
	}
	m, err := core.ParseMonth(month)
	if err != nil {
		return err
	}
	f := a.service.Filter()
	f.Month = m
	a.service.SetFilter(f)
	return nil
}

func lineInput(date, price, desc string) (core.LineInput, error) {
	var in core.LineInput
	var err error
	if in.Date, err = core.ParseDate(date); err != nil {
		return in, err
	}
	if in.Price, err = core.ParseWon(price); err != nil {
		return in, err
	}
	in.Description = desc
	return in, nil
}
