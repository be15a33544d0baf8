// dbtool 数据库维护工具
//
//	dbtool add-admin -name NAME -email EMAIL -password PASSWORD
//	dbtool show -user_id N [-role admin|user] [-table users|analysis_logs] [-limit N]
//	dbtool show -role guest [-table analysis_logs]
//	dbtool clear -yes
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"wastewise/backend/config"
	"wastewise/backend/internal/policy"
	"wastewise/backend/internal/repository"
	"wastewise/backend/internal/service"
	"wastewise/backend/pkg/database"
	applogger "wastewise/backend/pkg/logger"
)

const usage = `用法: dbtool <command> [flags]

命令:
  add-admin   创建管理员账户
  show        按角色权限打印表内容
  clear       删除全部表并重建空表结构
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	_ = godotenv.Load()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "add-admin":
		err = runAddAdmin(args)
	case "show":
		err = runShow(args, os.Stdout)
	case "clear":
		err = runClear(args)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "未知命令 %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "dbtool %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

// env 维护命令共用的运行环境
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	sqlDB  *sql.DB
	svc    *service.Service
	close  func()
}

func setup(configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	if err := database.EnsureSchema(sqlDB, cfg.Database.Driver, logger); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	repo := repository.NewRepository(db)
	return &env{
		cfg:    cfg,
		logger: logger,
		sqlDB:  sqlDB,
		svc:    service.NewService(service.Deps{Config: cfg, Repo: repo, Logger: logger}),
		close: func() {
			sqlDB.Close()
			_ = logger.Sync()
		},
	}, nil
}

// ── add-admin ──

func runAddAdmin(args []string) error {
	fs := flag.NewFlagSet("add-admin", flag.ExitOnError)
	configPath := fs.String("config", "", "配置文件路径")
	name := fs.String("name", "", "显示名")
	email := fs.String("email", "", "邮箱")
	password := fs.String("password", "", "密码")
	_ = fs.Parse(args)

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.close()

	id, err := e.svc.User.CreateAdmin(context.Background(), *name, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("管理员已创建: id=%d email=%s\n", id, *email)
	return nil
}

// ── show ──

func runShow(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	configPath := fs.String("config", "", "配置文件路径")
	table := fs.String("table", "", "users 或 analysis_logs，缺省打印两张表")
	roleFlag := fs.String("role", string(policy.RoleAdmin), "以该角色的权限读取")
	userID := fs.Uint("user_id", 0, "调用方用户 ID（role=admin/user 时必填，须与账户角色一致）")
	limit := fs.Int("limit", service.MaxHistoryLimit, "analysis_logs 最多打印条数")
	_ = fs.Parse(args)

	role, err := policy.ParseRole(*roleFlag)
	if err != nil {
		return fmt.Errorf("role %q: %w", *roleFlag, err)
	}
	if role != policy.RoleGuest && *userID == 0 {
		return fmt.Errorf("role %s 需要 -user_id", role)
	}
	caller := service.Caller{UserID: *userID, Role: role}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.close()
	ctx := context.Background()

	if *table == "" || *table == "users" {
		if err := showUsers(ctx, e.svc, caller, out); err != nil {
			return err
		}
	}
	if *table == "" || *table == "analysis_logs" {
		if err := showLogs(ctx, e.svc, caller, *limit, out); err != nil {
			return err
		}
	}
	return nil
}

func showUsers(ctx context.Context, svc *service.Service, caller service.Caller, out io.Writer) error {
	users, err := svc.User.List(ctx, caller)
	if err != nil {
		return fmt.Errorf("读取 users: %w", err)
	}

	fmt.Fprintf(out, "\nusers (%d)\n", len(users))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tCREATED_AT")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, u.CreatedAt)
	}
	return tw.Flush()
}

func showLogs(ctx context.Context, svc *service.Service, caller service.Caller, limit int, out io.Writer) error {
	logs, err := svc.History.History(ctx, caller, limit)
	if err != nil {
		return fmt.Errorf("读取 analysis_logs: %w", err)
	}

	fmt.Fprintf(out, "\nanalysis_logs (%d)\n", len(logs))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER_ID\tTIMESTAMP\tCLASS\tCONFIDENCE\tIMAGE")
	for _, l := range logs {
		owner := "-"
		if l.UserID != nil {
			owner = fmt.Sprint(*l.UserID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\t%s\n",
			l.ID, owner, l.Timestamp.UTC().Format(time.RFC3339), l.ClassName, l.ConfidenceScore, l.ImagePath)
	}
	return tw.Flush()
}

// ── clear ──

func runClear(args []string) error {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	configPath := fs.String("config", "", "配置文件路径")
	yes := fs.Bool("yes", false, "确认删除全部数据")
	_ = fs.Parse(args)

	if !*yes {
		return fmt.Errorf("该操作会删除全部用户与识别记录，请加 -yes 确认")
	}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.close()

	if err := database.DropSchema(e.sqlDB, e.cfg.Database.Driver, e.logger); err != nil {
		return fmt.Errorf("删除表失败: %w", err)
	}
	if err := database.EnsureSchema(e.sqlDB, e.cfg.Database.Driver, e.logger); err != nil {
		return fmt.Errorf("重建表结构失败: %w", err)
	}
	fmt.Println("已删除全部表 (users, analysis_logs) 并重建空表结构")
	return nil
}
